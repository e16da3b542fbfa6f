package metrics

import (
	"time"

	"github.com/kilianp07/powerplant/core/model"
)

// Outcome classifies the result of a production plan request.
type Outcome string

const (
	// OutcomeOK means the load was met exactly.
	OutcomeOK Outcome = "ok"
	// OutcomeSurplus means the plan produces more than the load.
	OutcomeSurplus Outcome = "surplus"
	// OutcomeInfeasible means part of the load was left uncovered.
	OutcomeInfeasible Outcome = "infeasible"
	// OutcomeRejected means the input was refused before dispatch.
	OutcomeRejected Outcome = "rejected"
)

// PlanEvent captures one production plan computation.
type PlanEvent struct {
	PlanID    string
	Outcome   Outcome
	Load      float64
	Total     float64
	Cost      float64
	Shortfall float64
	Surplus   float64
	// CostGap is the plan cost above the relaxed optimum. Only meaningful
	// when HasGap is set.
	CostGap  float64
	HasGap   bool
	ByType   map[model.PlantType]float64
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records production plan events for observability purposes.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error { return nil }
