package metrics

import "errors"

// MultiSink fanouts plan events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to every sink. A failing sink does not stop
// the others; all errors are returned joined.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
