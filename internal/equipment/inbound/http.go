package inbound

import (
	"context"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (usecase.UploadResult, error)
	History(ctx context.Context, owner string) ([]entity.Dataset, error)
	Report(ctx context.Context, owner string) (usecase.ReportResult, error)
}

// RegisterHTTPEndpoint mounts the dataset endpoints. protected guards every
// route (session and CSRF checks); maxBody caps the upload request size.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, maxBody int64, protected ...pkgrouter.Middleware) {
	end := &HTTPEndpoint{uc: uc}

	uploadMws := make([]pkgrouter.Middleware, 0, len(protected)+1)
	uploadMws = append(uploadMws, protected...)
	uploadMws = append(uploadMws, pkgrouter.MaxBodyBytes(maxBody))

	r.POST("/api/upload-csv/", end.UploadCSV, uploadMws...)
	r.GET("/api/history/", end.History, protected...)
	r.GET("/api/pdf/", end.PDF, protected...)
}
