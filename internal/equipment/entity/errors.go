package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingDataset is returned by the report renderer when it is given no dataset.
var ErrMissingDataset = errors.New("no dataset to render")

// SchemaError reports an upload whose header row does not carry the required columns.
type SchemaError struct {
	Missing    []string
	Duplicated []string
	Reason     string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Reason != "":
		return e.Reason
	case len(e.Missing) > 0:
		return "Missing required columns: " + strings.Join(e.Missing, ", ")
	case len(e.Duplicated) > 0:
		return "Duplicated columns: " + strings.Join(e.Duplicated, ", ")
	default:
		return "invalid CSV header"
	}
}

// RowParseError reports a data row that cannot be turned into an EquipmentRow.
// Row is the 1-based index of the data row; the header row is not counted.
type RowParseError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *RowParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
	}
	if e.Value == "" {
		return fmt.Sprintf("Row %d: %s %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("Row %d: %s %q %s", e.Row, e.Column, e.Value, e.Reason)
}

// StorageError wraps a failure of the underlying persistence backend.
// Callers may retry the whole operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a StorageError.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// RejectedError reports data the backend refused to store (invalid byte
// sequences, out of range values). Retrying the same input fails again, so
// it is a client error and never counts as a backend outage.
type RejectedError struct {
	Op  string
	Err error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("storage %s rejected data: %v", e.Op, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// RenderError reports a failure to produce a report document.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render report: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
