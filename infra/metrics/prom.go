package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/core/model"
)

// PromSink records production plans in Prometheus metrics.
type PromSink struct {
	plans      *prometheus.CounterVec
	dispatched *prometheus.GaugeVec
	duration   prometheus.Histogram
	costGap    prometheus.Histogram
	shortfall  prometheus.Counter
}

// NewPromSink registers plan metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "production_plans_total",
		Help: "Total number of production plans computed, by outcome",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	dispatched, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "production_plan_dispatched_mw",
		Help: "Power dispatched per plant type by the last production plan",
	}, []string{"plant_type"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "production_plan_duration_seconds",
		Help:    "Time spent computing a production plan",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}))
	if err != nil {
		return nil, err
	}
	costGap, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "production_plan_cost_gap_euro",
		Help:    "Plan cost above the relaxed optimum ignoring minimum outputs",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	}))
	if err != nil {
		return nil, err
	}
	shortfall, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "production_plan_shortfall_mw_total",
		Help: "Cumulated load left uncovered by infeasible plans",
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{plans: plans, dispatched: dispatched, duration: duration, costGap: costGap, shortfall: shortfall}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan updates the plan metrics for one event.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.WithLabelValues(string(ev.Outcome)).Inc()
	if ev.Outcome == coremetrics.OutcomeRejected {
		return nil
	}
	for _, t := range []model.PlantType{model.PlantGasFired, model.PlantTurboJet, model.PlantWindTurbine} {
		s.dispatched.WithLabelValues(t.String()).Set(ev.ByType[t])
	}
	s.duration.Observe(ev.Duration.Seconds())
	if ev.HasGap {
		s.costGap.Observe(ev.CostGap)
	}
	if ev.Shortfall > 0 {
		s.shortfall.Add(ev.Shortfall)
	}
	return nil
}
