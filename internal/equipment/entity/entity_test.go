package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortNewestFirst(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	ds := []Dataset{
		{ID: "a", UploadedAt: t1, Seq: 1},
		{ID: "b", UploadedAt: t2, Seq: 2},
		{ID: "c", UploadedAt: t2, Seq: 3},
		{ID: "d", UploadedAt: t1, Seq: 4},
	}
	SortNewestFirst(ds)

	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids)
}

func TestDatasetCloneIsDeep(t *testing.T) {
	orig := Dataset{
		Rows:    []EquipmentRow{{Name: "Pump-1", Type: "Pump"}},
		Summary: Summary{TotalEquipment: 1, TypeDistribution: map[string]int{"Pump": 1}},
	}

	cp := orig.Clone()
	cp.Rows[0].Name = "changed"
	cp.Summary.TypeDistribution["Pump"] = 9

	assert.Equal(t, "Pump-1", orig.Rows[0].Name)
	assert.Equal(t, 1, orig.Summary.TypeDistribution["Pump"])
}

func TestSummaryCloneOfNilDistribution(t *testing.T) {
	cp := Summary{}.Clone()
	require.NotNil(t, cp.TypeDistribution)
	assert.Empty(t, cp.TypeDistribution)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Missing required columns: Pressure, Temperature",
		(&SchemaError{Missing: []string{"Pressure", "Temperature"}}).Error())
	assert.Equal(t, "Duplicated columns: Type", (&SchemaError{Duplicated: []string{"Type"}}).Error())
	assert.Equal(t, `Row 2: Flowrate "abc" is not a number`,
		(&RowParseError{Row: 2, Column: ColumnFlowrate, Value: "abc", Reason: "is not a number"}).Error())
	assert.Equal(t, "Row 3: Equipment Name is empty",
		(&RowParseError{Row: 3, Column: ColumnName, Reason: "is empty"}).Error())
	assert.Equal(t, "Row 4: bare \" in non-quoted field",
		(&RowParseError{Row: 4, Reason: "bare \" in non-quoted field"}).Error())
}

func TestNewStorageError(t *testing.T) {
	assert.NoError(t, NewStorageError("put", nil))

	root := errors.New("connection refused")
	err := NewStorageError("put", root)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "put", se.Op)
	assert.ErrorIs(t, err, root)

	assert.Same(t, err, NewStorageError("list", err), "an existing StorageError is not wrapped twice")
}
