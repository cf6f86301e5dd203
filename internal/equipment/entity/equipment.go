package entity

// Required CSV headers, in the order they are reported when missing.
const (
	ColumnName        = "Equipment Name"
	ColumnType        = "Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

// RequiredColumns lists every header an upload must carry.
func RequiredColumns() []string {
	return []string{ColumnName, ColumnType, ColumnFlowrate, ColumnPressure, ColumnTemperature}
}

type EquipmentRow struct {
	Name        string
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}
