package usecase

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

func sampleRows() []entity.EquipmentRow {
	return []entity.EquipmentRow{
		{Name: "Pump-1", Type: "Pump", Flowrate: 120.0, Pressure: 5.5, Temperature: 70.0},
		{Name: "Valve-1", Type: "Valve", Flowrate: 0.0, Pressure: 2.0, Temperature: 25.0},
		{Name: "Pump-2", Type: "Pump", Flowrate: 150.0, Pressure: 6.0, Temperature: 72.0},
	}
}

func TestAggregateSample(t *testing.T) {
	s := Aggregate(sampleRows())

	assert.Equal(t, 3, s.TotalEquipment)
	assert.Equal(t, map[string]int{"Pump": 2, "Valve": 1}, s.TypeDistribution)
	assert.InDelta(t, 90.0, s.AverageFlowrate, 1e-9)
	assert.InDelta(t, 4.5, s.AveragePressure, 1e-9)
	assert.InDelta(t, 55.6667, s.AverageTemperature, 1e-3)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	assert.Equal(t, 0, s.TotalEquipment)
	require.NotNil(t, s.TypeDistribution)
	assert.Empty(t, s.TypeDistribution)
	assert.Zero(t, s.AverageFlowrate)
	assert.Zero(t, s.AveragePressure)
	assert.Zero(t, s.AverageTemperature)
}

func TestAggregateDistributionSumsToTotal(t *testing.T) {
	types := []string{"Pump", "Valve", "Reactor", "Heat Exchanger", "Compressor"}
	rows := make([]entity.EquipmentRow, 0, 200)
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		rows = append(rows, entity.EquipmentRow{
			Name:        "eq",
			Type:        types[i%len(types)],
			Flowrate:    r.Float64() * 500,
			Pressure:    r.Float64() * 20,
			Temperature: r.Float64()*300 - 50,
		})
	}

	s := Aggregate(rows)

	sum := 0
	for _, n := range s.TypeDistribution {
		sum += n
	}
	assert.Equal(t, s.TotalEquipment, sum)
	assert.Len(t, s.TypeDistribution, len(types))
}

func TestAggregateIsPermutationInvariant(t *testing.T) {
	rows := []entity.EquipmentRow{
		{Type: "A", Flowrate: 0.1, Pressure: 1e16, Temperature: -3.3},
		{Type: "B", Flowrate: 0.2, Pressure: 1, Temperature: 7.7},
		{Type: "A", Flowrate: 0.3, Pressure: -1e16, Temperature: 1.1},
		{Type: "C", Flowrate: 1e-9, Pressure: 3.5, Temperature: 2.2},
		{Type: "B", Flowrate: 123.456, Pressure: 0.7, Temperature: math.Pi},
	}
	want := Aggregate(rows)

	r := rand.New(rand.NewPCG(7, 11))
	for range 50 {
		shuffled := slices.Clone(rows)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Aggregate(shuffled)
		assert.Equal(t, want.AverageFlowrate, got.AverageFlowrate)
		assert.Equal(t, want.AveragePressure, got.AveragePressure)
		assert.Equal(t, want.AverageTemperature, got.AverageTemperature)
		assert.Equal(t, want.TypeDistribution, got.TypeDistribution)
	}
}

func TestAggregateNearFloatLimitStaysFinite(t *testing.T) {
	rows := []entity.EquipmentRow{
		{Type: "Pump", Flowrate: 1e308, Pressure: -1.7e308, Temperature: 1.5e308},
		{Type: "Pump", Flowrate: 1e308, Pressure: -1.7e308, Temperature: 1.5e308},
		{Type: "Pump", Flowrate: 1e308, Pressure: 1, Temperature: 1.5e308},
	}

	s := Aggregate(rows)

	for _, avg := range []float64{s.AverageFlowrate, s.AveragePressure, s.AverageTemperature} {
		assert.False(t, math.IsInf(avg, 0), "average overflowed: %v", avg)
		assert.False(t, math.IsNaN(avg))
	}
	assert.InEpsilon(t, 1e308, s.AverageFlowrate, 1e-12)
	assert.InEpsilon(t, -1.7e308/3*2, s.AveragePressure, 1e-12)
	assert.InEpsilon(t, 1.5e308, s.AverageTemperature, 1e-12)
}

func TestAggregateDoesNotReorderInput(t *testing.T) {
	rows := sampleRows()
	before := slices.Clone(rows)

	Aggregate(rows)

	assert.Equal(t, before, rows)
}
