package usecase

import (
	"math"
	"slices"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

// Aggregate reduces rows into a Summary.
//
// Averages add the values in ascending order so any permutation of rows
// yields bit-identical results. With zero rows every average is 0 and the
// distribution is empty.
func Aggregate(rows []entity.EquipmentRow) entity.Summary {
	summary := entity.Summary{
		TotalEquipment:   len(rows),
		TypeDistribution: make(map[string]int),
	}
	if len(rows) == 0 {
		return summary
	}

	flowrates := make([]float64, len(rows))
	pressures := make([]float64, len(rows))
	temperatures := make([]float64, len(rows))

	for i, row := range rows {
		summary.TypeDistribution[row.Type]++
		flowrates[i] = row.Flowrate
		pressures[i] = row.Pressure
		temperatures[i] = row.Temperature
	}

	summary.AverageFlowrate = orderedMean(flowrates)
	summary.AveragePressure = orderedMean(pressures)
	summary.AverageTemperature = orderedMean(temperatures)

	return summary
}

// orderedMean is sum/n while the sum stays finite. Finite values near the
// float64 limit overflow the plain sum, so those fall back to summing v/n,
// which is bounded by the largest magnitude.
func orderedMean(values []float64) float64 {
	slices.Sort(values)
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}

	sum = 0
	for _, v := range values {
		sum += v / n
	}
	return sum
}
