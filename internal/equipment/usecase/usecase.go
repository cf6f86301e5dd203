package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

const (
	DefaultHistoryLimit   = 5
	DefaultMaxUploadBytes = 5 << 20
)

// Store persists datasets per owner. Put assigns ID and Seq. Latest returns
// pkgerror.ErrNotFound when the owner has no dataset. List returns every
// dataset of the owner ordered newest first.
type Store interface {
	Put(ctx context.Context, owner string, ds entity.NewDataset) (entity.Dataset, error)
	List(ctx context.Context, owner string) ([]entity.Dataset, error)
	Latest(ctx context.Context, owner string) (entity.Dataset, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.DatasetStoredEvent) error
}

type Runner interface {
	Go(ctx context.Context, name string, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type ReportRenderer interface {
	Render(ds *entity.Dataset) ([]byte, error)
}

type ReportCache interface {
	Get(datasetID string) ([]byte, bool)
	Add(datasetID string, pdf []byte)
}

type Dependency struct {
	Store    Store
	Events   EventPublisher
	Runner   Runner
	Clock    Clock
	ID       pkguid.StringID
	Renderer ReportRenderer
	Cache    ReportCache
	Validate *validator.Validate
	RootCtx  context.Context

	HistoryLimit   int
	MaxUploadBytes int64
}

type Usecase struct {
	store    Store
	events   EventPublisher
	runner   Runner
	clock    Clock
	id       pkguid.StringID
	renderer ReportRenderer
	cache    ReportCache
	validate *validator.Validate
	rootCtx  context.Context

	historyLimit   int
	maxUploadBytes int64
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	validate := dep.Validate
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	limit := dep.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	maxBytes := dep.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	return &Usecase{
		store:          dep.Store,
		events:         dep.Events,
		runner:         dep.Runner,
		clock:          clock,
		id:             dep.ID,
		renderer:       dep.Renderer,
		cache:          dep.Cache,
		validate:       validate,
		rootCtx:        root,
		historyLimit:   limit,
		maxUploadBytes: maxBytes,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Upload decodes, validates and summarizes a CSV document and stores it as a
// new dataset for the owner. Nothing is stored when any step fails.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if u.store == nil {
		return UploadResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	in.Filename = cleanFilename(in.Filename)
	if err := u.validate.StructCtx(ctx, in); err != nil {
		return UploadResult{}, validationErr(err)
	}

	table, err := DecodeCSV(in.Content, u.maxUploadBytes)
	if err != nil {
		pkgmetrics.RecordUpload(pkgmetrics.UploadRejected, 0)
		slog.WarnContext(ctx, "upload rejected", "owner", in.Owner, "filename", in.Filename, "error", err)
		return UploadResult{}, normalizeErr(err)
	}

	rows, err := ValidateTable(table)
	if err != nil {
		pkgmetrics.RecordUpload(pkgmetrics.UploadRejected, 0)
		slog.WarnContext(ctx, "upload rejected", "owner", in.Owner, "filename", in.Filename, "error", err)
		return UploadResult{}, normalizeErr(err)
	}

	stored, err := u.store.Put(ctx, in.Owner, entity.NewDataset{
		Filename:   in.Filename,
		UploadedAt: u.now(),
		Rows:       rows,
		Summary:    Aggregate(rows),
	})
	if err != nil {
		pkgmetrics.RecordUpload(pkgmetrics.UploadFailed, len(rows))
		slog.ErrorContext(ctx, "failed to store dataset", "owner", in.Owner, "filename", in.Filename, "error", err)
		return UploadResult{}, normalizeErr(err)
	}

	pkgmetrics.RecordUpload(pkgmetrics.UploadAccepted, len(rows))
	slog.InfoContext(ctx, "dataset stored",
		"dataset_id", stored.ID,
		"owner", stored.Owner,
		"filename", stored.Filename,
		"rows", stored.Summary.TotalEquipment,
	)

	u.publishStored(stored)

	return UploadResult{Dataset: stored}, nil
}

// History returns the owner's most recent datasets, newest first. An owner
// without uploads gets an empty slice.
func (u *Usecase) History(ctx context.Context, owner string) ([]entity.Dataset, error) {
	if owner == "" {
		return nil, pkgerror.NewUnauthorized("Authentication credentials were not provided.")
	}

	all, err := u.store.List(ctx, owner)
	if err != nil {
		return nil, normalizeErr(err)
	}

	entity.SortNewestFirst(all)
	if len(all) > u.historyLimit {
		all = all[:u.historyLimit]
	}
	if all == nil {
		all = []entity.Dataset{}
	}

	return all, nil
}

// Latest returns the owner's newest dataset.
func (u *Usecase) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	if owner == "" {
		return entity.Dataset{}, pkgerror.NewUnauthorized("Authentication credentials were not provided.")
	}

	ds, err := u.store.Latest(ctx, owner)
	if err != nil {
		return entity.Dataset{}, mapStoreErr(err)
	}

	return ds, nil
}

// Report renders the PDF for the owner's newest dataset. Rendered documents
// are cached by dataset ID since datasets never change after being stored.
func (u *Usecase) Report(ctx context.Context, owner string) (ReportResult, error) {
	if u.renderer == nil {
		return ReportResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	ds, err := u.Latest(ctx, owner)
	if err != nil {
		return ReportResult{}, err
	}

	result := ReportResult{DatasetID: ds.ID, Filename: ReportFilename(ds)}

	if u.cache != nil {
		if pdf, ok := u.cache.Get(ds.ID); ok {
			pkgmetrics.RecordReportCache(true)
			result.Content = pdf
			return result, nil
		}
		pkgmetrics.RecordReportCache(false)
	}

	pdf, err := u.renderer.Render(&ds)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render report", "dataset_id", ds.ID, "error", err)
		return ReportResult{}, normalizeErr(err)
	}

	if u.cache != nil {
		u.cache.Add(ds.ID, pdf)
	}

	result.Content = pdf
	return result, nil
}

func (u *Usecase) publishStored(ds entity.Dataset) {
	if u.events == nil || u.runner == nil {
		return
	}

	eventID := ds.ID
	if u.id != nil {
		eventID = u.id.Generate()
	}
	event := entity.DatasetStoredEvent{EventID: eventID, Dataset: ds.Clone()}

	u.runner.Go(u.rootCtx, "publish dataset stored", func(ctx context.Context) error {
		if err := u.events.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish event", "dataset_id", ds.ID, "event_id", event.EventID, "error", err)
			return err
		}
		return nil
	})
}

func (u *Usecase) now() time.Time {
	return u.clock.Now().UTC().Truncate(time.Microsecond)
}

func cleanFilename(name string) string {
	name = strings.ToValidUTF8(name, "")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func validationErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return pkgerror.NewInvalidData(fmt.Errorf("%s is required", field), map[string]any{"field": field})
		case "max":
			return pkgerror.NewInvalidData(fmt.Errorf("%s must be at most %s characters", field, fe.Param()), map[string]any{"field": field})
		}
	}
	return pkgerror.NewInvalidInput(err)
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("No dataset available. Upload at least one dataset first.", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}

	var schemaErr *entity.SchemaError
	if errors.As(err, &schemaErr) {
		details := map[string]any{}
		if len(schemaErr.Missing) > 0 {
			details["missing_columns"] = schemaErr.Missing
		}
		if len(schemaErr.Duplicated) > 0 {
			details["duplicated_columns"] = schemaErr.Duplicated
		}
		return pkgerror.NewInvalidData(schemaErr, details)
	}

	var rowErr *entity.RowParseError
	if errors.As(err, &rowErr) {
		details := map[string]any{"row": rowErr.Row}
		if rowErr.Column != "" {
			details["column"] = rowErr.Column
		}
		return pkgerror.NewInvalidData(rowErr, details)
	}

	if errors.Is(err, ErrPayloadTooLarge) {
		return pkgerror.NewTooLarge("Uploaded file is too large.")
	}

	var rejectedErr *entity.RejectedError
	if errors.As(err, &rejectedErr) {
		return pkgerror.NewInvalidData(errors.New("Uploaded file contains data that cannot be stored."), nil)
	}

	var storageErr *entity.StorageError
	if errors.As(err, &storageErr) {
		return pkgerror.NewUnavailable(storageErr, "Storage is temporarily unavailable, please retry.")
	}

	return pkgerror.NewServer(err)
}
