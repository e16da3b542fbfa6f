package dispatch

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/powerplant/core/model"
)

// Dispatcher computes a production plan for a load.
type Dispatcher interface {
	Dispatch(load float64, fuels model.Fuels, plants []model.Powerplant) (Plan, error)
}

// MeritOrderDispatcher allocates the load to plants from the cheapest to the
// most expensive marginal cost. Wind is always taken first at its available
// capacity. Plants sharing the same cost split the remaining load evenly.
//
// The dispatcher has no state and may be shared between goroutines.
type MeritOrderDispatcher struct{}

// NewMeritOrderDispatcher returns a merit-order dispatcher.
func NewMeritOrderDispatcher() MeritOrderDispatcher {
	return MeritOrderDispatcher{}
}

// Dispatch returns one allocation per plant in dispatch order. When the fleet
// cannot cover the load the partial plan is returned together with an
// *InfeasibleError. The plants slice is never modified.
func (d MeritOrderDispatcher) Dispatch(load float64, fuels model.Fuels, plants []model.Powerplant) (Plan, error) {
	if err := validateInput(load, fuels, plants); err != nil {
		return Plan{}, err
	}
	list, err := costPlants(plants, fuels)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Load: load, Allocations: make([]model.Allocation, 0, len(list))}
	var wind []float64
	for _, c := range list {
		if c.isWind() {
			wind = append(wind, c.pmax)
		}
	}
	remaining := snap(load - floats.Sum(wind))

	if remaining <= 0 {
		// Wind covers the load on its own and is never curtailed.
		for _, c := range list {
			power := 0.0
			if c.isWind() {
				power = c.pmax
			}
			plan.add(c, power)
		}
		plan.Surplus = -remaining
		return plan, nil
	}

	placed := make([]bool, len(list))
	for i, c := range list {
		if placed[i] {
			continue
		}
		switch {
		case c.isWind():
			// Already subtracted from the load above.
			plan.add(c, c.pmax)
			placed[i] = true
		case remaining <= 0:
			plan.add(c, 0)
			placed[i] = true
		default:
			group := tieGroup(list, placed, i)
			if len(group) >= 2 && c.plant.PMin*float64(len(group)) < remaining {
				remaining = splitEvenly(&plan, list, placed, group, remaining)
				continue
			}
			power := round1(clamp(remaining, c.plant.PMin, c.pmax))
			plan.add(c, power)
			placed[i] = true
			remaining = snap(remaining - power)
		}
	}

	if remaining > 0 {
		plan.Shortfall = remaining
		return plan, &InfeasibleError{Load: load, Shortfall: remaining}
	}
	plan.Surplus = -remaining
	return plan, nil
}

// tieGroup returns the indexes of unplaced thermal plants costing exactly
// the same as list[i], including i, in merit order.
func tieGroup(list []costedPlant, placed []bool, i int) []int {
	group := []int{i}
	for j := i + 1; j < len(list); j++ {
		if placed[j] || list[j].isWind() {
			continue
		}
		if list[j].cost == list[i].cost {
			group = append(group, j)
		}
	}
	return group
}

// splitEvenly gives every plant of the group the same share of what was
// uncovered when the group was reached, clamped to the plant bounds. What a
// clamped or rounded share leaves over stays in the running total and falls
// to the next plants in merit order.
func splitEvenly(plan *Plan, list []costedPlant, placed []bool, group []int, remaining float64) float64 {
	share := remaining / float64(len(group))
	for _, idx := range group {
		c := list[idx]
		power := round1(clamp(share, c.plant.PMin, c.pmax))
		plan.add(c, power)
		placed[idx] = true
		remaining = snap(remaining - power)
	}
	return remaining
}

func validateInput(load float64, fuels model.Fuels, plants []model.Powerplant) error {
	if math.IsNaN(load) || math.IsInf(load, 0) || load < 0 {
		return invalidInput(fmt.Errorf("load %v must be a non-negative number", load))
	}
	if err := fuels.Validate(); err != nil {
		return invalidInput(err)
	}
	seen := make(map[string]struct{}, len(plants))
	var errs []error
	for _, p := range plants {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate plant name %s", p.Name))
		}
		seen[p.Name] = struct{}{}
	}
	if len(errs) > 0 {
		return invalidInput(errors.Join(errs...))
	}
	return nil
}
