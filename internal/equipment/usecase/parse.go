package usecase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

// ErrPayloadTooLarge is returned when an upload exceeds the configured size.
var ErrPayloadTooLarge = errors.New("uploaded file is too large")

const utf8BOM = "\ufeff"

// Table is a decoded CSV document: the header row and every data record.
type Table struct {
	Header  []string
	Records [][]string
}

// DecodeCSV reads a comma separated document. The first non-empty line is the
// header. Reading stops with ErrPayloadTooLarge once more than maxBytes have
// been consumed (maxBytes <= 0 disables the bound).
func DecodeCSV(r io.Reader, maxBytes int64) (Table, error) {
	if maxBytes > 0 {
		r = &boundedReader{r: r, remaining: maxBytes}
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, &entity.SchemaError{Reason: "CSV file is empty, a header row is required"}
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Table{}, &entity.SchemaError{Reason: "invalid CSV header: " + perr.Err.Error()}
		}
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}

	table := Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Table{}, &entity.RowParseError{Row: len(table.Records) + 1, Reason: perr.Err.Error()}
			}
			return Table{}, fmt.Errorf("read csv row %d: %w", len(table.Records)+1, err)
		}

		table.Records = append(table.Records, record)
	}

	return table, nil
}

// columnIndex maps each required column to its position in the header.
type columnIndex struct {
	name, typ, flowrate, pressure, temperature int
	width                                      int
}

func resolveColumns(header []string) (columnIndex, error) {
	positions := make(map[string][]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(h))
		positions[key] = append(positions[key], i)
	}

	var missing, duplicated []string
	found := make(map[string]int, len(entity.RequiredColumns()))
	for _, col := range entity.RequiredColumns() {
		idx := positions[strings.ToLower(col)]
		switch len(idx) {
		case 0:
			missing = append(missing, col)
		case 1:
			found[col] = idx[0]
		default:
			duplicated = append(duplicated, col)
		}
	}

	if len(missing) > 0 || len(duplicated) > 0 {
		return columnIndex{}, &entity.SchemaError{Missing: missing, Duplicated: duplicated}
	}

	ci := columnIndex{
		name:        found[entity.ColumnName],
		typ:         found[entity.ColumnType],
		flowrate:    found[entity.ColumnFlowrate],
		pressure:    found[entity.ColumnPressure],
		temperature: found[entity.ColumnTemperature],
	}
	ci.width = max(ci.name, ci.typ, ci.flowrate, ci.pressure, ci.temperature) + 1

	return ci, nil
}

// ValidateTable checks the header against the required columns and converts
// every record into an EquipmentRow. The first invalid row fails the whole
// table. A table without data records is valid and yields no rows.
func ValidateTable(t Table) ([]entity.EquipmentRow, error) {
	cols, err := resolveColumns(t.Header)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.EquipmentRow, 0, len(t.Records))
	for i, record := range t.Records {
		row, err := parseRecord(i+1, record, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRecord(rowNum int, record []string, cols columnIndex) (entity.EquipmentRow, error) {
	if len(record) < cols.width {
		return entity.EquipmentRow{}, &entity.RowParseError{
			Row:    rowNum,
			Reason: fmt.Sprintf("expected at least %d fields, got %d", cols.width, len(record)),
		}
	}

	name := strings.TrimSpace(record[cols.name])
	if name == "" {
		return entity.EquipmentRow{}, &entity.RowParseError{Row: rowNum, Column: entity.ColumnName, Reason: "is empty"}
	}
	if hasControl(name) {
		return entity.EquipmentRow{}, &entity.RowParseError{Row: rowNum, Column: entity.ColumnName, Reason: "contains control characters"}
	}

	typ := strings.TrimSpace(record[cols.typ])
	if typ == "" {
		return entity.EquipmentRow{}, &entity.RowParseError{Row: rowNum, Column: entity.ColumnType, Reason: "is empty"}
	}
	if hasControl(typ) {
		return entity.EquipmentRow{}, &entity.RowParseError{Row: rowNum, Column: entity.ColumnType, Reason: "contains control characters"}
	}

	flowrate, err := parseNumber(rowNum, entity.ColumnFlowrate, record[cols.flowrate])
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	pressure, err := parseNumber(rowNum, entity.ColumnPressure, record[cols.pressure])
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	temperature, err := parseNumber(rowNum, entity.ColumnTemperature, record[cols.temperature])
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	return entity.EquipmentRow{
		Name:        name,
		Type:        typ,
		Flowrate:    flowrate,
		Pressure:    pressure,
		Temperature: temperature,
	}, nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

func parseNumber(rowNum int, column, raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, &entity.RowParseError{Row: rowNum, Column: column, Reason: "is empty"}
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &entity.RowParseError{Row: rowNum, Column: column, Value: value, Reason: "is not a number"}
	}

	return f, nil
}

type boundedReader struct {
	r         io.Reader
	remaining int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		// One byte of lookahead tells "exactly at the limit" from "over it".
		var probe [1]byte
		n, err := b.r.Read(probe[:])
		if n > 0 {
			return 0, ErrPayloadTooLarge
		}
		return 0, err
	}

	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}
