package entity

import (
	"slices"
	"time"
)

// NewDataset is what the use case hands to a store. The store assigns the
// identity (ID and Seq) when it persists it.
type NewDataset struct {
	Filename   string
	UploadedAt time.Time
	Rows       []EquipmentRow
	Summary    Summary
}

// Dataset is one accepted upload. It is immutable once stored.
type Dataset struct {
	ID         string
	Owner      string
	Seq        int64 // store insertion order, used to break UploadedAt ties
	Filename   string
	UploadedAt time.Time
	Rows       []EquipmentRow
	Summary    Summary
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	out := d
	out.Rows = slices.Clone(d.Rows)
	out.Summary = d.Summary.Clone()
	return out
}

// Newer reports whether d sorts before other in newest-first order:
// later UploadedAt first, then higher Seq.
func (d Dataset) Newer(other Dataset) bool {
	if !d.UploadedAt.Equal(other.UploadedAt) {
		return d.UploadedAt.After(other.UploadedAt)
	}
	return d.Seq > other.Seq
}

// SortNewestFirst orders datasets by UploadedAt descending, ties broken by
// Seq descending.
func SortNewestFirst(ds []Dataset) {
	slices.SortStableFunc(ds, func(a, b Dataset) int {
		switch {
		case a.Newer(b):
			return -1
		case b.Newer(a):
			return 1
		default:
			return 0
		}
	})
}
