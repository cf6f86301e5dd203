package app

import (
	"crypto/rand"
	"log/slog"
	"os"

	"github.com/shandysiswandi/chemviz/internal/auth"
	"github.com/shandysiswandi/chemviz/internal/equipment"
)

func (a *App) initModules() {
	svc := a.initAuth()

	auth.RegisterHTTPEndpoint(a.router, svc, auth.LoginRateLimit(
		int(a.config.GetInt("auth.login_rate_limit")),
		a.config.GetDuration("auth.login_rate_window"),
	))

	if a.config.GetBool("modules.equipment.enabled") {
		stop, err := equipment.New(equipment.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			Store:     a.store,
			Validate:  a.validate,
			Protected: svc.Protected(),
		})
		if err != nil {
			slog.Error("failed to init module equipment", "error", err)
			os.Exit(1)
		}
		if stop != nil {
			a.addCloser("Equipment", stop)
		}
	}
}

func (a *App) initAuth() *auth.Service {
	secret, err := a.config.GetBinary("auth.jwt_secret")
	if err != nil {
		slog.Error("failed to read session secret", "error", err)
		os.Exit(1)
	}
	if len(secret) == 0 {
		slog.Warn("auth.jwt_secret is not set, sessions will not survive a restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			slog.Error("failed to generate session secret", "error", err)
			os.Exit(1)
		}
	}

	svc, err := auth.New(auth.Config{
		Users:        a.config.GetMap("auth.users"),
		Secret:       secret,
		SessionTTL:   a.config.GetDuration("auth.session_ttl"),
		CookieSecure: a.config.GetBool("auth.cookie_secure"),
	}, auth.Dependency{
		JTI:      a.snowflake,
		Token:    a.uuid,
		Validate: a.validate,
	})
	if err != nil {
		slog.Error("failed to init auth", "error", err)
		os.Exit(1)
	}

	return svc
}
