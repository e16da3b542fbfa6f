package model

import (
	"fmt"
	"math"
)

// Powerplant describes a generation unit available for dispatch.
type Powerplant struct {
	Name       string
	Type       PlantType
	Efficiency float64 // fuel to electricity ratio, ignored for wind
	PMin       float64 // minimum stable output in MW
	PMax       float64 // nameplate capacity in MW
}

// Validate checks that the plant bounds are sound. The type itself is not
// checked here so that cost computation can report unknown types by name.
func (p Powerplant) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plant name is required")
	}
	if !nonNegative(p.PMin) || !finite(p.PMax) {
		return fmt.Errorf("plant %s: pmin and pmax must be finite and pmin non-negative", p.Name)
	}
	if p.PMax < p.PMin {
		return fmt.Errorf("plant %s: pmax %.1f below pmin %.1f", p.Name, p.PMax, p.PMin)
	}
	if !p.Type.IsWind() && p.Type != PlantUnknown && (!(p.Efficiency > 0) || !finite(p.Efficiency)) {
		return fmt.Errorf("plant %s: efficiency must be positive", p.Name)
	}
	return nil
}

// Fuels holds the market conditions used to price generation.
type Fuels struct {
	Gas      float64 // euro/MWh
	Kerosine float64 // euro/MWh
	CO2      float64 // euro/ton
	Wind     float64 // wind availability in percent (0-100)
}

// Validate checks that prices are non-negative and wind is a percentage.
func (f Fuels) Validate() error {
	if !nonNegative(f.Gas) || !nonNegative(f.Kerosine) || !nonNegative(f.CO2) {
		return fmt.Errorf("fuel prices must be finite and non-negative")
	}
	if !(f.Wind >= 0 && f.Wind <= 100) {
		return fmt.Errorf("wind percentage %v out of range [0,100]", f.Wind)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// Allocation is the power assigned to a single plant in MW.
type Allocation struct {
	Name string
	Type PlantType
	P    float64
}
