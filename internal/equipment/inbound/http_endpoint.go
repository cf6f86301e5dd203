package inbound

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shandysiswandi/chemviz/internal/auth"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgrouter"
)

const defaultUploadName = "upload.csv"

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) UploadCSV(ctx context.Context, r *http.Request) (any, error) {
	owner, _ := auth.UserFromContext(ctx)

	reader, filename, cleanup, err := extractCSVReader(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := h.uc.Upload(ctx, usecase.UploadInput{
		Owner:    owner,
		Filename: filename,
		Content:  &bodyLimitReader{r: reader},
	})
	if err != nil {
		return nil, err
	}

	return UploadResponse{
		Message:   "CSV uploaded and analyzed successfully.",
		DatasetID: result.Dataset.ID,
		Summary:   toHTTPSummary(result.Dataset.Summary),
	}, nil
}

func (h *HTTPEndpoint) History(ctx context.Context, _ *http.Request) (any, error) {
	owner, _ := auth.UserFromContext(ctx)

	datasets, err := h.uc.History(ctx, owner)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(datasets))
	for _, ds := range datasets {
		items = append(items, toHistoryItem(ds))
	}

	return items, nil
}

func (h *HTTPEndpoint) PDF(ctx context.Context, _ *http.Request) (any, error) {
	owner, _ := auth.UserFromContext(ctx)

	result, err := h.uc.Report(ctx, owner)
	if err != nil {
		return nil, err
	}

	return PDFResponse{filename: result.Filename, content: result.Content}, nil
}

// extractCSVReader accepts either a multipart form with a "file" part or a
// raw CSV body (file name from the ?filename= query parameter).
func extractCSVReader(r *http.Request) (io.Reader, string, func(), error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && strings.EqualFold(mediaType, "multipart/form-data") {
			return extractMultipartFile(r)
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return nil, "", func() {}, pkgerror.NewInvalidData(errors.New("CSV file is required."), nil)
	}

	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		filename = defaultUploadName
	}

	return r.Body, filename, func() {}, nil
}

func extractMultipartFile(r *http.Request) (io.Reader, string, func(), error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", func() {}, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, "", func() {}, pkgerror.NewInvalidData(errors.New("CSV file is required."), nil)
			}
			if pkgrouter.IsBodyTooLarge(err) {
				return nil, "", func() {}, pkgerror.NewTooLarge("Uploaded file is too large.")
			}
			return nil, "", func() {}, pkgerror.NewInvalidFormat()
		}

		if part.FormName() == "file" {
			return part, partFilename(part), func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}

func partFilename(part *multipart.Part) string {
	if name := strings.TrimSpace(part.FileName()); name != "" {
		return name
	}
	return defaultUploadName
}

// bodyLimitReader reports an exceeded request body cap as the use case's own
// payload error so both limits surface the same way.
type bodyLimitReader struct {
	r io.Reader
}

func (b *bodyLimitReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && pkgrouter.IsBodyTooLarge(err) {
		return n, usecase.ErrPayloadTooLarge
	}
	return n, err
}
