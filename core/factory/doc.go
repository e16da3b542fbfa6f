// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("log", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ Component string `json:"component"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newLogSink(c.Component), nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "log", Conf: map[string]any{"component": "plans"}})
package factory
