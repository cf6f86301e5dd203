package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return s.n.Add(1) }

type testClock struct{ now atomic.Pointer[time.Time] }

func (c *testClock) Now() time.Time { return *c.now.Load() }

func (c *testClock) Set(t time.Time) { c.now.Store(&t) }

func newTestService(t *testing.T) (*Service, *testClock) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	clock := &testClock{}
	clock.Set(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))

	svc, err := New(Config{
		Users:      map[string]string{"alice": string(hash), "bob": string(hash)},
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		SessionTTL: time.Hour,
	}, Dependency{
		JTI:   &seqID{},
		Token: pkguid.Func(func() string { return "11111111-2222-3333-4444-555555555555" }),
		Now:   clock.Now,
	})
	require.NoError(t, err)

	return svc, clock
}

func requireCode(t *testing.T, err error, code pkgerror.Code) {
	t.Helper()
	var perr *pkgerror.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, code, perr.Code())
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Secret: []byte("short")}, Dependency{JTI: &seqID{}, Token: pkguid.Func(func() string { return "x" })})
	assert.Error(t, err)

	_, err = New(Config{Secret: make([]byte, 32)}, Dependency{})
	assert.Error(t, err)

	_, err = New(Config{
		Secret: make([]byte, 32),
		Users:  map[string]string{"alice": "not-a-hash"},
	}, Dependency{JTI: &seqID{}, Token: pkguid.Func(func() string { return "x" })})
	assert.Error(t, err)
}

func TestService_LoginAndVerify(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	session, err := svc.Login(context.Background(), LoginInput{Username: " alice ", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.NotEmpty(t, session.Token)

	user, err := svc.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestService_LoginErrors(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice"})
	requireCode(t, err, pkgerror.CodeInvalidFormat)

	_, err = svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})
	requireCode(t, err, pkgerror.CodeUnauthorized)

	_, err = svc.Login(context.Background(), LoginInput{Username: "mallory", Password: "secret-pass"})
	requireCode(t, err, pkgerror.CodeUnauthorized)
}

func TestService_VerifyRejects(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t)

	session, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Verify(session.Token + "x")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrInvalidSession)

	clock.Set(clock.Now().Add(2 * time.Hour))
	_, err = svc.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_Logout(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	first, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)

	svc.Logout(first.Token)

	_, err = svc.Verify(first.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	user, err := svc.Verify(second.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestService_LogoutSurvivesManyRevocations(t *testing.T) {
	t.Parallel()
	svc, clock := newTestService(t)

	session, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "secret-pass"})
	require.NoError(t, err)
	svc.Logout(session.Token)

	expiresAt := clock.Now().Add(time.Hour)
	for i := 0; i < 10000; i++ {
		svc.revoked.revoke("other-"+strconv.Itoa(i), expiresAt, clock.Now())
	}

	_, err = svc.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRevocations_PruneByExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	r := newRevocations()

	r.revoke("short", now.Add(time.Minute), now)
	r.revoke("long", now.Add(time.Hour), now)
	r.revoke("expired", now.Add(-time.Second), now)
	assert.Equal(t, 2, r.len())
	assert.True(t, r.isRevoked("short", now))

	later := now.Add(10 * time.Minute)
	assert.False(t, r.isRevoked("short", later))
	assert.True(t, r.isRevoked("long", later))

	r.revoke("after", later.Add(time.Hour), later)
	r.revoke("soon", later.Add(time.Minute), later)
	assert.Equal(t, 3, r.len())

	r.revoke("next", now.Add(3*time.Hour), now.Add(2*time.Hour))
	assert.Equal(t, 1, r.len(), "expired entries are pruned on the next revoke")
	assert.True(t, r.isRevoked("next", now.Add(2*time.Hour)))
}

func TestService_NewCSRFToken(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	assert.Equal(t, "11111111222233334444555555555555", svc.NewCSRFToken())
}

func newTestRouter(t *testing.T) (*pkgrouter.Router, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	r := pkgrouter.NewRouter(pkguid.Func(func() string { return "cid" }))
	RegisterHTTPEndpoint(r, svc, LoginRateLimit(3, time.Minute))
	return r, svc
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestHTTP_LoginFlow(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/csrf/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"CSRF cookie set"}`, rec.Body.String())
	require.NotEmpty(t, cookieValue(rec, CSRFCookie))

	req := httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(`{"username":"alice","password":"secret-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Login successful"}`, rec.Body.String())

	session := cookieValue(rec, SessionCookie)
	csrf := cookieValue(rec, CSRFCookie)
	require.NotEmpty(t, session)
	require.NotEmpty(t, csrf)

	req = httptest.NewRequest(http.MethodGet, "/api/auth-status/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusResponse{Authenticated: true, Username: "alice"}, status)

	// logout without the CSRF header is refused
	req = httptest.NewRequest(http.MethodPost, "/api/logout/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: csrf})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/logout/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: csrf})
	req.Header.Set(CSRFHeader, csrf)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth-status/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_LoginFormAndErrors(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	post := func(contentType, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post("application/x-www-form-urlencoded", "username=alice&password=secret-pass")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post("application/json", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Username and password required"}`, rec.Body.String())

	rec = post("application/json", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())

	// the limiter allows three attempts per window
	rec = post("application/json", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHTTP_AuthStatusWithoutSession(t *testing.T) {
	t.Parallel()
	r, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth-status/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication credentials were not provided."}`, rec.Body.String())
}
