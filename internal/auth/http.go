package auth

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
)

type MessageResponse struct {
	Message string `json:"message"`

	cookies []*http.Cookie
}

func (m MessageResponse) Cookies() []*http.Cookie {
	return m.cookies
}

type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// RegisterHTTPEndpoint mounts the session endpoints under /api.
func RegisterHTTPEndpoint(r *pkgrouter.Router, s *Service, loginLimit pkgrouter.Middleware) {
	end := &HTTPEndpoint{svc: s}

	r.GET("/api/csrf/", end.CSRFToken)
	r.POST("/api/login/", end.Login, loginLimit)
	r.GET("/api/auth-status/", end.Status, s.Protected()...)
	r.POST("/api/logout/", end.Logout, s.Protected()...)
}

type HTTPEndpoint struct {
	svc *Service
}

func (h *HTTPEndpoint) CSRFToken(ctx context.Context, r *http.Request) (any, error) {
	token := ""
	if c, err := r.Cookie(CSRFCookie); err == nil && c.Value != "" {
		token = c.Value
	}
	if token == "" {
		token = h.svc.NewCSRFToken()
	}

	return MessageResponse{
		Message: "CSRF cookie set",
		cookies: []*http.Cookie{h.svc.csrfCookie(token)},
	}, nil
}

func (h *HTTPEndpoint) Login(ctx context.Context, r *http.Request) (any, error) {
	in, err := decodeLogin(r)
	if err != nil {
		return nil, err
	}

	session, err := h.svc.Login(ctx, in)
	if err != nil {
		return nil, err
	}

	return MessageResponse{
		Message: "Login successful",
		cookies: []*http.Cookie{
			h.svc.sessionCookie(session),
			h.svc.csrfCookie(h.svc.NewCSRFToken()),
		},
	}, nil
}

func (h *HTTPEndpoint) Status(ctx context.Context, _ *http.Request) (any, error) {
	user, _ := UserFromContext(ctx)
	return StatusResponse{Authenticated: true, Username: user}, nil
}

func (h *HTTPEndpoint) Logout(ctx context.Context, r *http.Request) (any, error) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		h.svc.Logout(c.Value)
	}

	return MessageResponse{
		Message: "Logged out",
		cookies: []*http.Cookie{h.svc.expiredSessionCookie()},
	}, nil
}

func decodeLogin(r *http.Request) (LoginInput, error) {
	var in LoginInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return LoginInput{}, pkgerror.NewInvalidFormat()
		}
	case mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return LoginInput{}, pkgerror.NewInvalidFormat()
		}
		in.Username = r.PostFormValue("username")
		in.Password = r.PostFormValue("password")
	default:
		return LoginInput{}, pkgerror.NewInvalidFormat()
	}

	return in, nil
}

func (s *Service) sessionCookie(session Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Service) expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// csrfCookie is readable by scripts so browser clients can echo it back.
func (s *Service) csrfCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
