package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

const (
	SessionCookie = "sessionid"
	CSRFCookie    = "csrftoken"
	CSRFHeader    = "X-CSRFToken"

	issuer            = "chemviz"
	defaultSessionTTL = 12 * time.Hour
	minSecretLen      = 16
)

var (
	ErrInvalidSession = errors.New("invalid session")

	msgNotAuthenticated = "Authentication credentials were not provided."
)

type Config struct {
	Users        map[string]string // username -> bcrypt hash
	Secret       []byte
	SessionTTL   time.Duration
	CookieSecure bool
}

type Dependency struct {
	JTI      pkguid.NumberID
	Token    pkguid.StringID
	Validate *validator.Validate
	Now      func() time.Time
}

type LoginInput struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

type Session struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users    map[string][]byte
	secret   []byte
	ttl      time.Duration
	secure   bool
	jti      pkguid.NumberID
	token    pkguid.StringID
	validate *validator.Validate
	now      func() time.Time
	revoked  *revocations
}

func New(cfg Config, dep Dependency) (*Service, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("auth: secret must be at least %d bytes", minSecretLen)
	}
	if dep.JTI == nil || dep.Token == nil {
		return nil, errors.New("auth: missing id generators")
	}

	users := make(map[string][]byte, len(cfg.Users))
	for name, hash := range cfg.Users {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("auth: user %q: %w", name, err)
		}
		users[name] = []byte(hash)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	validate := dep.Validate
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	now := dep.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		users:    users,
		secret:   cfg.Secret,
		ttl:      ttl,
		secure:   cfg.CookieSecure,
		jti:      dep.JTI,
		token:    dep.Token,
		validate: validate,
		now:      now,
		revoked:  newRevocations(),
	}, nil
}

// Login checks the credentials and issues a signed session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return Session{}, pkgerror.NewInvalidData(errors.New("Username and password required"), nil)
	}

	hash, ok := s.users[in.Username]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
		return Session{}, pkgerror.NewUnauthorized("Invalid credentials")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   in.Username,
		ID:        strconv.FormatInt(s.jti.Generate(), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, pkgerror.NewServer(fmt.Errorf("sign session: %w", err))
	}

	return Session{Username: in.Username, Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify returns the username a session token was issued to.
func (s *Service) Verify(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}

	if s.revoked.isRevoked(claims.ID, s.now()) {
		return "", ErrInvalidSession
	}
	if _, ok := s.users[claims.Subject]; !ok {
		return "", ErrInvalidSession
	}

	return claims.Subject, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(token string) {
	claims, err := s.parse(token)
	if err != nil {
		return
	}
	s.revoked.revoke(claims.ID, claims.ExpiresAt.Time, s.now())
}

// NewCSRFToken returns a fresh random token for the CSRF cookie.
func (s *Service) NewCSRFToken() string {
	return strings.ReplaceAll(s.token.Generate(), "-", "")
}

func (s *Service) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
