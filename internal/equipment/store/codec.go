package store

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

// datasetRecord is the persisted shape of a dataset for the key-value backends.
type datasetRecord struct {
	ID         string        `json:"id"`
	Owner      string        `json:"owner"`
	Seq        int64         `json:"seq"`
	Filename   string        `json:"filename"`
	UploadedAt time.Time     `json:"uploaded_at"`
	Rows       []rowRecord   `json:"rows"`
	Summary    summaryRecord `json:"summary"`
}

type rowRecord struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

type summaryRecord struct {
	TotalEquipment     int            `json:"total_equipment"`
	TypeDistribution   map[string]int `json:"type_distribution"`
	AverageFlowrate    float64        `json:"average_flowrate"`
	AveragePressure    float64        `json:"average_pressure"`
	AverageTemperature float64        `json:"average_temperature"`
}

func toRows(rows []entity.EquipmentRow) []rowRecord {
	out := make([]rowRecord, len(rows))
	for i, r := range rows {
		out[i] = rowRecord(r)
	}
	return out
}

func fromRows(rows []rowRecord) []entity.EquipmentRow {
	out := make([]entity.EquipmentRow, len(rows))
	for i, r := range rows {
		out[i] = entity.EquipmentRow(r)
	}
	return out
}

func toSummary(s entity.Summary) summaryRecord {
	return summaryRecord(s.Clone())
}

func fromSummary(s summaryRecord) entity.Summary {
	return entity.Summary(s).Clone()
}

func encodeDataset(ds entity.Dataset) ([]byte, error) {
	return json.Marshal(datasetRecord{
		ID:         ds.ID,
		Owner:      ds.Owner,
		Seq:        ds.Seq,
		Filename:   ds.Filename,
		UploadedAt: ds.UploadedAt,
		Rows:       toRows(ds.Rows),
		Summary:    toSummary(ds.Summary),
	})
}

func decodeDataset(data []byte) (entity.Dataset, error) {
	var rec datasetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return entity.Dataset{}, err
	}

	return entity.Dataset{
		ID:         rec.ID,
		Owner:      rec.Owner,
		Seq:        rec.Seq,
		Filename:   rec.Filename,
		UploadedAt: rec.UploadedAt.UTC(),
		Rows:       fromRows(rec.Rows),
		Summary:    fromSummary(rec.Summary),
	}, nil
}

// newDataset stamps identity onto a dataset that is about to be stored.
func newDataset(id, owner string, seq int64, nd entity.NewDataset) entity.Dataset {
	return entity.Dataset{
		ID:         id,
		Owner:      owner,
		Seq:        seq,
		Filename:   nd.Filename,
		UploadedAt: nd.UploadedAt.UTC(),
		Rows:       nd.Rows,
		Summary:    nd.Summary,
	}.Clone()
}

func latestOf(list []entity.Dataset) (entity.Dataset, bool) {
	if len(list) == 0 {
		return entity.Dataset{}, false
	}
	latest := list[0]
	for _, ds := range list[1:] {
		if ds.Newer(latest) {
			latest = ds
		}
	}
	return latest, true
}
