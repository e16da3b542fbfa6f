// Package dispatch computes production plans. MeritOrderDispatcher prices
// every plant from the fuel market, takes the available wind first and then
// fills the remaining load from the cheapest thermal plant upwards, within
// each plant's minimum and maximum output. RelaxedCost solves the same
// problem as a linear program without minimum outputs to bound the cost of
// any plan from below.
package dispatch
