package model

import "fmt"

// PlantType defines the technology of a powerplant.
type PlantType int

const (
	PlantUnknown PlantType = iota
	PlantGasFired
	PlantTurboJet
	PlantWindTurbine
)

// String returns the wire representation of the plant type.
func (t PlantType) String() string {
	switch t {
	case PlantGasFired:
		return "gasfired"
	case PlantTurboJet:
		return "turbojet"
	case PlantWindTurbine:
		return "windturbine"
	default:
		return "unknown"
	}
}

// ParsePlantType converts the wire representation into a PlantType.
func ParsePlantType(s string) (PlantType, error) {
	switch s {
	case "gasfired":
		return PlantGasFired, nil
	case "turbojet":
		return PlantTurboJet, nil
	case "windturbine":
		return PlantWindTurbine, nil
	default:
		return PlantUnknown, fmt.Errorf("unknown plant type %q", s)
	}
}

// IsWind returns true for plants whose output is bounded by wind availability.
func (t PlantType) IsWind() bool {
	return t == PlantWindTurbine
}
