package pkgrouter

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

const maxStackFrames = 16

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must propagate untouched
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			route := matchedRoutePath(r)
			pkgmetrics.RecordPanic(route)
			slog.ErrorContext(r.Context(), "panic on the server",
				"route", route,
				"because", fmt.Sprint(rvr),
				"stack", appFrames(debug.Stack()),
			)

			WriteError(w, r, pkgerror.NewServer(fmt.Errorf("panic: %v", rvr)))
		}()

		next.ServeHTTP(w, r)
	})
}

// appFrames keeps the file:line entries of this module from a goroutine
// stack dump, innermost first.
func appFrames(stack []byte) []string {
	frames := make([]string, 0, maxStackFrames)
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}
		if sp := strings.IndexByte(line, ' '); sp != -1 {
			line = line[:sp]
		}
		frames = append(frames, line[idx+1:])
		if len(frames) == maxStackFrames {
			break
		}
	}
	return frames
}
