package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/powerplant/core/factory"
	coremetrics "github.com/kilianp07/powerplant/core/metrics"
	"github.com/kilianp07/powerplant/infra/logger"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("log", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Component string `json:"component"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Component == "" {
			c.Component = "plans"
		}
		return NewLogSink(logger.New(c.Component)), nil
	})
}
