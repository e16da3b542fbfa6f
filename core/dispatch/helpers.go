package dispatch

import "math"

// residueMW is the floating residue below which remaining load counts as met.
const residueMW = 1e-6

// round1 rounds a power value to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// snap removes floating residue left by subtracting rounded allocations.
func snap(remaining float64) float64 {
	if math.Abs(remaining) < residueMW {
		return 0
	}
	return remaining
}
