package dispatch

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/powerplant/core/model"
)

// Plan is the outcome of a merit-order dispatch.
type Plan struct {
	// ID correlates the plan across logs and metrics. It is left empty by the
	// dispatcher and assigned by the caller.
	ID          string
	Load        float64
	Allocations []model.Allocation
	// Cost is the hourly generation cost of the plan in euro.
	Cost float64
	// Shortfall is the load left uncovered, in MW.
	Shortfall float64
	// Surplus is the output produced above the load, in MW. It is non-zero
	// when wind alone exceeds the load or when a pmin forces overshoot.
	Surplus float64
}

// Total returns the sum of all assigned power.
func (p Plan) Total() float64 {
	ps := make([]float64, len(p.Allocations))
	for i, a := range p.Allocations {
		ps[i] = a.P
	}
	return floats.Sum(ps)
}

// Feasible reports whether the load was fully covered.
func (p Plan) Feasible() bool { return p.Shortfall == 0 }

// ByType returns the dispatched power aggregated per plant type.
func (p Plan) ByType() map[model.PlantType]float64 {
	out := make(map[model.PlantType]float64)
	for _, a := range p.Allocations {
		out[a.Type] += a.P
	}
	return out
}

func (p *Plan) add(c costedPlant, power float64) {
	p.Allocations = append(p.Allocations, model.Allocation{Name: c.plant.Name, Type: c.plant.Type, P: power})
	p.Cost += power * c.cost
}
