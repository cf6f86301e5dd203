package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSanitizeCorrelationID(t *testing.T) {
	cases := map[string]string{
		"  abc  ":        "abc",
		"\n":             "",
		"a\r\nInjected":  "",
		"with space":     "",
		"req-42/α":       "",
		"trace-9f1c.0001": "trace-9f1c.0001",
	}
	for in, want := range cases {
		if got := sanitizeCorrelationID(in); got != want {
			t.Fatalf("sanitizeCorrelationID(%q) = %q, want %q", in, got, want)
		}
	}

	long := strings.Repeat("a", 200)
	if got := sanitizeCorrelationID(long); len(got) != maxCorrelationIDLen {
		t.Fatalf("expected length %d, got %d", maxCorrelationIDLen, len(got))
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "secret")
	headers.Set("X-Trace", "ok")
	headers.Set("X-CSRFToken", "tok")

	masked := maskHeaders(headers)
	if got := masked.Get("Authorization"); got != "***" {
		t.Fatalf("expected masked authorization, got %q", got)
	}
	if got := masked.Get("X-CSRFToken"); got != "***" {
		t.Fatalf("expected masked csrf header, got %q", got)
	}
	if got := masked.Get("X-Trace"); got != "ok" {
		t.Fatalf("expected X-Trace to stay, got %q", got)
	}
	if got := headers.Get("Authorization"); got != "secret" {
		t.Fatalf("expected original headers unchanged, got %q", got)
	}
}

func TestMaskData(t *testing.T) {
	input := map[string]any{
		"password": "secret",
		"profile": map[string]any{
			"access_token": "token",
		},
		"items": []any{
			map[string]any{
				"refresh_token": "rt",
			},
		},
	}

	masked := maskData(input).(map[string]any)
	if masked["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if masked["profile"].(map[string]any)["access_token"] != "***" {
		t.Fatalf("expected masked access_token")
	}
	items := masked["items"].([]any)
	if items[0].(map[string]any)["refresh_token"] != "***" {
		t.Fatalf("expected masked refresh_token")
	}
}

func TestParseAndMaskBodyJSON(t *testing.T) {
	body := []byte(`{"password":"secret","name":"bob"}`)
	parsed := parseAndMaskBody("application/json", body, false)

	m, ok := parsed.(map[string]any)
	if !ok {
		encoded, _ := json.Marshal(parsed)
		t.Fatalf("expected map, got %s", string(encoded))
	}
	if m["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if m["name"] != "bob" {
		t.Fatalf("expected name to remain")
	}
}

func TestParseAndMaskBodyForm(t *testing.T) {
	body := []byte("password=secret&name=bob")
	parsed := parseAndMaskBody("application/x-www-form-urlencoded", body, false)

	m, ok := parsed.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", parsed)
	}
	if m["password"] != "***" {
		t.Fatalf("expected masked password")
	}
	if m["name"] != "bob" {
		t.Fatalf("expected name to remain")
	}
}

func TestParseAndMaskBodyOmitsUploads(t *testing.T) {
	csv := []byte("Equipment Name,Type,Flowrate,Pressure,Temperature\nPump-1,Pump,120,5.5,70\n")
	tests := []struct {
		contentType string
		body        []byte
		truncated   bool
		want        string
	}{
		{contentType: "text/csv; charset=utf-8", body: csv, want: "<text/csv body omitted, 73 bytes>"},
		{contentType: "application/octet-stream", body: csv, want: "<application/octet-stream body omitted, 73 bytes>"},
		{contentType: "text/plain", body: []byte{0xff, 0xfe, 0xfd}, want: "<text/plain body omitted, 3 bytes>"},
		{contentType: "", body: csv, truncated: true, want: "<untyped body omitted, > 73 bytes>"},
	}

	for _, tt := range tests {
		if got := parseAndMaskBody(tt.contentType, tt.body, tt.truncated); got != tt.want {
			t.Fatalf("parseAndMaskBody(%q) = %v, want %q", tt.contentType, got, tt.want)
		}
	}
}

func TestParseAndMaskBodyMultipart(t *testing.T) {
	parsed := parseAndMaskBody("multipart/form-data; boundary=x", []byte("--x\r\nEquipment Name,Type"), false)
	if parsed != "<multipart body omitted>" {
		t.Fatalf("expected multipart omission, got %v", parsed)
	}
}

func TestParseAndMaskBodyTruncated(t *testing.T) {
	parsed := parseAndMaskBody("application/json", []byte(`{"password":"se`), true)
	if parsed != "<truncated json body omitted>" {
		t.Fatalf("unexpected truncated body: %v", parsed)
	}
}

func TestPeekBodyKeepsFullStream(t *testing.T) {
	payload := bytes.Repeat([]byte("a"), maxLoggedBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))

	head, truncated := peekBody(req)
	if !truncated {
		t.Fatalf("expected truncated peek")
	}
	if len(head) != maxLoggedBodyBytes {
		t.Fatalf("unexpected head length %d", len(head))
	}

	rest, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(rest, payload) {
		t.Fatalf("handler must see the full body, got %d bytes", len(rest))
	}
}
