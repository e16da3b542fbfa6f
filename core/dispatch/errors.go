package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlantType is returned when a plant type has no cost model.
	ErrUnknownPlantType = errors.New("unknown plant type")
	// ErrInvalidInput indicates malformed load, fuels or plant records.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasible indicates the fleet cannot produce the requested load.
	ErrInfeasible = errors.New("load infeasible")
)

// UnknownPlantTypeError names the plant whose type could not be priced.
type UnknownPlantTypeError struct {
	Plant string
	Type  string
}

func (e *UnknownPlantTypeError) Error() string {
	return fmt.Sprintf("plant %s: %s %q", e.Plant, ErrUnknownPlantType, e.Type)
}

func (e *UnknownPlantTypeError) Unwrap() error { return ErrUnknownPlantType }

// InfeasibleError reports how much load was left uncovered after dispatch.
type InfeasibleError struct {
	Load      float64
	Shortfall float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%s: %.1f MW of %.1f MW not covered", ErrInfeasible, e.Shortfall, e.Load)
}

func (e *InfeasibleError) Unwrap() error { return ErrInfeasible }

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
