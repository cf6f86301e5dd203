package pkgrouter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (w *metricsRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func middlewareMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkgmetrics.TrackInFlight(true)
		defer pkgmetrics.TrackInFlight(false)

		start := time.Now()
		rec := &metricsRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		pkgmetrics.RecordHTTPRequest(r.Method, matchedRoutePath(r), strconv.Itoa(status), time.Since(start))
	})
}

func (w *metricsRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
