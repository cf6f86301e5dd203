package inbound

import (
	"time"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

type Summary struct {
	TotalEquipment     int            `json:"total_equipment"`
	TypeDistribution   map[string]int `json:"type_distribution"`
	AverageFlowrate    float64        `json:"average_flowrate"`
	AveragePressure    float64        `json:"average_pressure"`
	AverageTemperature float64        `json:"average_temperature"`
}

type UploadResponse struct {
	Message   string  `json:"message"`
	DatasetID string  `json:"dataset_id"`
	Summary   Summary `json:"summary"`
}

type HistoryItem struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	Summary    Summary   `json:"summary"`
}

type PDFResponse struct {
	filename string
	content  []byte
}

func (PDFResponse) ContentType() string {
	return "application/pdf"
}

func (p PDFResponse) Filename() string {
	return p.filename
}

func (p PDFResponse) Content() []byte {
	return p.content
}

func toHTTPSummary(s entity.Summary) Summary {
	dist := s.TypeDistribution
	if dist == nil {
		dist = map[string]int{}
	}

	return Summary{
		TotalEquipment:     s.TotalEquipment,
		TypeDistribution:   dist,
		AverageFlowrate:    s.AverageFlowrate,
		AveragePressure:    s.AveragePressure,
		AverageTemperature: s.AverageTemperature,
	}
}

func toHistoryItem(ds entity.Dataset) HistoryItem {
	return HistoryItem{
		ID:         ds.ID,
		Filename:   ds.Filename,
		UploadedAt: ds.UploadedAt.UTC(),
		Summary:    toHTTPSummary(ds.Summary),
	}
}
