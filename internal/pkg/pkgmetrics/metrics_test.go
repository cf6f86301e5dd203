package pkgmetrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordUpload(t *testing.T) {
	before := testutil.ToFloat64(UploadsTotal.WithLabelValues(UploadRejected))
	RecordUpload(UploadRejected, 0)
	after := testutil.ToFloat64(UploadsTotal.WithLabelValues(UploadRejected))

	if after-before != 1 {
		t.Fatalf("expected rejected counter to grow by 1, got %v", after-before)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/history/", "200"))
	RecordHTTPRequest("GET", "/api/history/", "200", 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/history/", "200"))

	if after-before != 1 {
		t.Fatalf("expected request counter to grow by 1, got %v", after-before)
	}
}

func TestRecordReportCache(t *testing.T) {
	hits := testutil.ToFloat64(ReportCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(ReportCacheTotal.WithLabelValues("miss"))

	RecordReportCache(true)
	RecordReportCache(false)
	RecordReportCache(false)

	if got := testutil.ToFloat64(ReportCacheTotal.WithLabelValues("hit")) - hits; got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(ReportCacheTotal.WithLabelValues("miss")) - misses; got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	SetBreakerState("store", 0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chemviz_storage_breaker_state") {
		t.Fatalf("expected breaker gauge in exposition")
	}
}
