package app

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkglog"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	validate  *validator.Validate
	goroutine *pkgroutine.Manager

	// resources
	store usecase.Store

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closers run in reverse registration order on Stop
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func New() *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initLibraries()
	app.initResources()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
