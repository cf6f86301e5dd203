package report

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

const (
	Title = "Chemical Equipment Dataset Report"

	pageMargin   = 15.0
	chartHeight  = 70.0
	maxChartBars = 12
)

type rgb struct{ r, g, b int }

var (
	colorText  = rgb{33, 37, 41}
	colorMuted = rgb{108, 117, 125}
	colorAxis  = rgb{173, 181, 189}
	colorRule  = rgb{222, 226, 230}
	colorBars  = []rgb{
		{54, 162, 235},
		{255, 99, 132},
		{255, 206, 86},
		{75, 192, 192},
		{153, 102, 255},
		{255, 159, 64},
	}
)

type bar struct {
	label string
	value float64
}

// PDFRenderer draws a one-dataset report with the core PDF fonts. Output is
// byte-for-byte stable for a given dataset.
type PDFRenderer struct {
	compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

func (r *PDFRenderer) Render(ds *entity.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, &entity.RenderError{Err: entity.ErrMissingDataset}
	}

	start := time.Now()
	defer func() { pkgmetrics.RecordReportRender(time.Since(start)) }()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(ds.UploadedAt)
	pdf.SetModificationDate(ds.UploadedAt)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(Title, true)
	pdf.SetSubject(ds.Filename, true)
	pdf.SetCreator("chemviz", true)

	w := &writer{pdf: pdf, tr: tr}
	pdf.AddPage()

	w.header(ds)
	w.summary(ds.Summary)
	w.distribution(ds.Summary)

	w.chart("Equipment Type Distribution", distributionBars(ds.Summary), "%.0f")
	w.chart("Average Parameters", []bar{
		{label: entity.ColumnFlowrate, value: ds.Summary.AverageFlowrate},
		{label: entity.ColumnPressure, value: ds.Summary.AveragePressure},
		{label: entity.ColumnTemperature, value: ds.Summary.AverageTemperature},
	}, "%.2f")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &entity.RenderError{Err: err}
	}

	return buf.Bytes(), nil
}

// distributionBars sorts types by count (descending, then name) and folds
// everything past the chart capacity into a single "Other" bar.
func distributionBars(s entity.Summary) []bar {
	bars := make([]bar, 0, len(s.TypeDistribution))
	for name, n := range s.TypeDistribution {
		bars = append(bars, bar{label: name, value: float64(n)})
	}
	slices.SortFunc(bars, func(a, b bar) int {
		if c := cmp.Compare(b.value, a.value); c != 0 {
			return c
		}
		return cmp.Compare(a.label, b.label)
	})

	if len(bars) <= maxChartBars {
		return bars
	}

	other := bar{label: "Other"}
	for _, b := range bars[maxChartBars-1:] {
		other.value += b.value
	}
	return append(bars[:maxChartBars-1], other)
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) color(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *writer) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	return pageW - left - right
}

func (w *writer) section(title string) {
	w.pdf.Ln(4)
	w.pdf.SetFont("Helvetica", "B", 13)
	w.color(colorText)
	w.pdf.CellFormat(0, 8, w.tr(title), "B", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *writer) header(ds *entity.Dataset) {
	w.pdf.SetFont("Helvetica", "B", 18)
	w.color(colorText)
	w.pdf.CellFormat(0, 10, w.tr(Title), "", 1, "L", false, 0, "")

	w.pdf.SetFont("Helvetica", "", 10)
	w.color(colorMuted)
	w.pdf.CellFormat(0, 6, w.tr("File: "+ds.Filename), "", 1, "L", false, 0, "")
	w.pdf.CellFormat(0, 6, w.tr("Uploaded at: "+ds.UploadedAt.UTC().Format("2006-01-02 15:04:05 UTC")), "", 1, "L", false, 0, "")
}

func (w *writer) summary(s entity.Summary) {
	w.section("Summary Statistics")

	rows := [][2]string{
		{"Total Equipment", fmt.Sprintf("%d", s.TotalEquipment)},
		{"Average Flowrate", fmt.Sprintf("%.2f", s.AverageFlowrate)},
		{"Average Pressure", fmt.Sprintf("%.2f", s.AveragePressure)},
		{"Average Temperature", fmt.Sprintf("%.2f", s.AverageTemperature)},
	}

	w.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	for _, row := range rows {
		w.pdf.SetFont("Helvetica", "", 11)
		w.color(colorMuted)
		w.pdf.CellFormat(70, 7, w.tr(row[0]), "B", 0, "L", false, 0, "")
		w.pdf.SetFont("Helvetica", "B", 11)
		w.color(colorText)
		w.pdf.CellFormat(40, 7, row[1], "B", 1, "R", false, 0, "")
	}
}

func (w *writer) distribution(s entity.Summary) {
	w.section("Equipment Type Distribution")

	w.pdf.SetFont("Helvetica", "", 11)
	w.color(colorText)
	if len(s.TypeDistribution) == 0 {
		w.color(colorMuted)
		w.pdf.CellFormat(0, 6, "No equipment rows in this dataset.", "", 1, "L", false, 0, "")
		return
	}

	bars := make([]bar, 0, len(s.TypeDistribution))
	for name, n := range s.TypeDistribution {
		bars = append(bars, bar{label: name, value: float64(n)})
	}
	slices.SortFunc(bars, func(a, b bar) int { return cmp.Compare(a.label, b.label) })

	for _, b := range bars {
		w.pdf.CellFormat(0, 6, w.tr(fmt.Sprintf("%s: %.0f", b.label, b.value)), "", 1, "L", false, 0, "")
	}
}

// chart draws a vertical bar chart with a zero baseline. Negative values
// hang below the baseline.
func (w *writer) chart(title string, bars []bar, valueFormat string) {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+chartHeight+30 > pageH-pageMargin {
		w.pdf.AddPage()
	}

	w.section(title)

	if len(bars) == 0 {
		w.pdf.SetFont("Helvetica", "I", 10)
		w.color(colorMuted)
		w.pdf.CellFormat(0, 6, "Nothing to chart.", "", 1, "L", false, 0, "")
		return
	}

	hi, lo := 0.0, 0.0
	for _, b := range bars {
		hi = math.Max(hi, b.value)
		lo = math.Min(lo, b.value)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	left, _, _, _ := w.pdf.GetMargins()
	top := w.pdf.GetY() + 6
	width := w.contentWidth()
	scale := chartHeight / span
	baseline := top + hi*scale
	slot := width / float64(len(bars))
	barW := slot * 0.6

	w.pdf.SetDrawColor(colorAxis.r, colorAxis.g, colorAxis.b)
	w.pdf.SetLineWidth(0.2)
	w.pdf.Line(left, top, left, top+chartHeight)
	w.pdf.Line(left, baseline, left+width, baseline)

	for i, b := range bars {
		c := colorBars[i%len(colorBars)]
		x := left + float64(i)*slot + (slot-barW)/2
		h := math.Abs(b.value) * scale
		y := baseline - h
		if b.value < 0 {
			y = baseline
		}

		w.pdf.SetFillColor(c.r, c.g, c.b)
		if h > 0 {
			w.pdf.Rect(x, y, barW, h, "F")
		}

		w.pdf.SetFont("Helvetica", "", 7)
		w.color(colorText)
		valueY := y - 4
		if b.value < 0 {
			valueY = y + h
		}
		w.pdf.SetXY(x-2, valueY)
		w.pdf.CellFormat(barW+4, 4, fmt.Sprintf(valueFormat, b.value), "", 0, "C", false, 0, "")

		w.pdf.SetXY(left+float64(i)*slot, top+chartHeight+1)
		w.pdf.CellFormat(slot, 4, w.tr(truncate(b.label, slot)), "", 0, "C", false, 0, "")
	}

	w.pdf.SetXY(left, top+chartHeight+8)
}

// truncate shortens label to roughly fit width millimetres at 7pt.
func truncate(label string, width float64) string {
	limit := int(width / 1.4)
	runes := []rune(label)
	if limit < 4 || len(runes) <= limit {
		return label
	}
	return string(runes[:limit-1]) + "."
}
