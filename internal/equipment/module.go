package equipment

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shandysiswandi/chemviz/internal/equipment/event"
	"github.com/shandysiswandi/chemviz/internal/equipment/inbound"
	"github.com/shandysiswandi/chemviz/internal/equipment/report"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

// multipartOverhead is allowed on top of the CSV size for form boundaries
// and part headers.
const multipartOverhead = 64 << 10

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	Store     usecase.Store
	Validate  *validator.Validate
	Protected []pkgrouter.Middleware
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.Store == nil {
		return nil, errors.New("equipment: store is required")
	}
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	maxUpload := dep.Config.GetInt("server.max_upload_bytes")
	if maxUpload <= 0 {
		maxUpload = usecase.DefaultMaxUploadBytes
	}

	renderer := report.NewPDFRenderer()
	cache := report.NewCache(int(dep.Config.GetInt("report.cache_size")))

	bus := event.NewBus(512)
	consumer := event.NewDatasetConsumer(bus, report.NewWarmer(renderer, cache), event.ConsumerConfig{
		Workers:     int(dep.Config.GetInt("report.workers")),
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
	})
	consumer.Start(dep.Context)

	uc := usecase.New(usecase.Dependency{
		Store:          dep.Store,
		Events:         bus,
		Runner:         dep.Goroutine,
		ID:             dep.ID,
		Renderer:       renderer,
		Cache:          cache,
		Validate:       dep.Validate,
		RootCtx:        dep.Context,
		HistoryLimit:   int(dep.Config.GetInt("modules.equipment.history_limit")),
		MaxUploadBytes: maxUpload,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, maxUpload+multipartOverhead, dep.Protected...)

	return consumer.Stop, nil
}
