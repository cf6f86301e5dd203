package usecase

import (
	"io"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

type UploadInput struct {
	Owner    string    `validate:"required"`
	Filename string    `validate:"required,max=255"`
	Content  io.Reader `validate:"required"`
}

type UploadResult struct {
	Dataset entity.Dataset
}

type ReportResult struct {
	DatasetID string
	Filename  string
	Content   []byte
}

// ReportFilename names the PDF generated for a dataset.
func ReportFilename(ds entity.Dataset) string {
	return ds.Filename + "_report.pdf"
}
