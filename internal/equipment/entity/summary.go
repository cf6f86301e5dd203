package entity

import "maps"

// Summary is the aggregate computed once per upload and never recomputed.
type Summary struct {
	TotalEquipment     int
	TypeDistribution   map[string]int
	AverageFlowrate    float64
	AveragePressure    float64
	AverageTemperature float64
}

// Clone returns a deep copy so callers cannot mutate a stored summary.
func (s Summary) Clone() Summary {
	out := s
	out.TypeDistribution = make(map[string]int, len(s.TypeDistribution))
	maps.Copy(out.TypeDistribution, s.TypeDistribution)
	return out
}
