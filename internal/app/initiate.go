package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/shandysiswandi/chemviz/internal/auth"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
	a.validate = validator.New(validator.WithRequiredStructEnabled())

	sf, err := pkguid.NewSnowflake(-1)
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = sf
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)
	a.router.Handle(http.MethodGet, "/metrics", pkgmetrics.Handler())

	origins := a.config.GetArray("server.cors.origins")
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", auth.CSRFHeader, pkgrouter.HeaderCorrelationID},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
