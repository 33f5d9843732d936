package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus keeps the last value of every stage measurement as a gauge:
//
//	monthlypulse_stage_metric{stage="download",metric="raw_rows"} 125000
type Prometheus struct {
	registry *prometheus.Registry
	gauge    *prometheus.GaugeVec
}

// NewPrometheus creates a sink with its own registry.
func NewPrometheus() *Prometheus {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monthlypulse",
		Name:      "stage_metric",
		Help:      "Last value recorded for a pipeline stage measurement.",
	}, []string{"stage", "metric"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(gauge)
	return &Prometheus{registry: reg, gauge: gauge}
}

func (p *Prometheus) Record(stage, metric string, value float64) {
	p.gauge.WithLabelValues(stage, metric).Set(value)
}

// Registry exposes the registry so it can be served or gathered.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile dumps the current values in the text exposition format, the way
// node_exporter's textfile collector expects them.
func (p *Prometheus) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
