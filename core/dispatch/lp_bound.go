package dispatch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/powerplant/core/model"
)

// solveRelaxed runs the simplex algorithm to minimise the generation cost
// subject to 0 <= p_i <= caps_i and sum(p) = target.
func solveRelaxed(costs, caps []float64, target float64) (float64, error) {
	n := len(costs)
	g := mat.NewDense(2*n, n, nil)
	h := make([]float64, 2*n)
	for i, c := range caps {
		g.Set(i, i, 1)
		h[i] = c
		g.Set(n+i, i, -1)
	}

	A := mat.NewDense(1, n, nil)
	for i := 0; i < n; i++ {
		A.Set(0, i, 1)
	}
	b := []float64{target}

	cStd, AStd, bStd := lp.Convert(costs, g, h, A, b)
	opt, _, err := lp.Simplex(cStd, AStd, bStd, 1e-7, nil)
	return opt, err
}

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = solveRelaxed

// RelaxedCost returns the minimum generation cost for the load when minimum
// stable outputs are ignored. It is a lower bound for any feasible plan and is
// used to measure how far the merit order lands from the optimum.
func RelaxedCost(load float64, fuels model.Fuels, plants []model.Powerplant) (float64, error) {
	if err := validateInput(load, fuels, plants); err != nil {
		return 0, err
	}
	list, err := costPlants(plants, fuels)
	if err != nil {
		return 0, err
	}
	if load == 0 {
		return 0, nil
	}
	costs := make([]float64, len(list))
	caps := make([]float64, len(list))
	var capacity float64
	for i, c := range list {
		costs[i] = c.cost
		caps[i] = c.pmax
		capacity += c.pmax
	}
	if capacity < load {
		return 0, &InfeasibleError{Load: load, Shortfall: load - capacity}
	}
	opt, err := lpSolve(costs, caps, load)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return 0, fmt.Errorf("relaxed cost: %w", ErrInfeasible)
		}
		return 0, fmt.Errorf("relaxed cost: %w", err)
	}
	return opt, nil
}
