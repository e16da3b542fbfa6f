package metrics

import (
	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/infra/logger"
)

// LogSink writes a structured summary line per production plan.
type LogSink struct {
	log logger.Logger
}

// NewLogSink returns a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.NopLogger{}
	}
	return &LogSink{log: l}
}

// RecordPlan logs the plan summary. Infeasible plans are logged as warnings.
func (s *LogSink) RecordPlan(ev coremetrics.PlanEvent) error {
	fields := map[string]any{
		"plan_id":   ev.PlanID,
		"outcome":   string(ev.Outcome),
		"load_mw":   ev.Load,
		"total_mw":  ev.Total,
		"cost_euro": ev.Cost,
		"elapsed":   ev.Duration.String(),
	}
	if ev.HasGap {
		fields["cost_gap_euro"] = ev.CostGap
	}
	switch ev.Outcome {
	case coremetrics.OutcomeInfeasible:
		s.log.Warnf("plan %s leaves %.1f MW of %.1f MW uncovered", ev.PlanID, ev.Shortfall, ev.Load)
	case coremetrics.OutcomeSurplus:
		fields["surplus_mw"] = ev.Surplus
	}
	s.log.Infow("production plan", fields)
	return nil
}
