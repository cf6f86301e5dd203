package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
)

// Authenticate attaches the session user to the request context when the
// session cookie holds a valid token. It never rejects a request.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err == nil {
			if user, verr := s.Verify(c.Value); verr == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without an authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			pkgrouter.WriteError(w, r, pkgerror.NewUnauthorized(msgNotAuthenticated))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRF enforces the double submit check on unsafe methods: the X-CSRFToken
// header must match the csrftoken cookie.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(CSRFHeader)
		c, err := r.Cookie(CSRFCookie)
		if err != nil || header == "" || c.Value == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(c.Value)) != 1 {
			pkgrouter.WriteError(w, r, pkgerror.NewBusiness("CSRF Failed: CSRF token missing or incorrect.", pkgerror.CodeForbidden))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Protected is the middleware stack for session-only endpoints.
func (s *Service) Protected() []pkgrouter.Middleware {
	return []pkgrouter.Middleware{s.Authenticate, RequireUser, CSRF}
}

// LoginRateLimit throttles login attempts per client IP. A non-positive
// limit disables throttling.
func LoginRateLimit(limit int, window time.Duration) pkgrouter.Middleware {
	if limit <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkgrouter.WriteError(w, r, pkgerror.NewBusiness("Too many login attempts, try again later.", pkgerror.CodeTooManyRequests))
		}),
	)
}
