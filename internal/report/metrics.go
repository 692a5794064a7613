package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethanolivertroy/annexa/internal/model"
)

// Metrics holds the gauges describing one assessment
type Metrics struct {
	ControlScore    *prometheus.GaugeVec
	ControlWeighted *prometheus.GaugeVec
	Controls        *prometheus.GaugeVec
	Percentage      *prometheus.GaugeVec
	registry        *prometheus.Registry
}

// NewMetrics creates the gauges on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		ControlScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annexa_control_score",
				Help: "Raw compliance score of a control (0-1)",
			},
			[]string{"control", "status"},
		),
		ControlWeighted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annexa_control_weighted_contribution",
				Help: "Raw score multiplied by the control's risk weight",
			},
			[]string{"control"},
		),
		Controls: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annexa_controls",
				Help: "Number of controls by compliance status",
			},
			[]string{"status"},
		),
		Percentage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "annexa_compliance_percentage",
				Help: "Overall and risk-weighted compliance percentage",
			},
			[]string{"kind"},
		),
		registry: registry,
	}

	registry.MustRegister(m.ControlScore)
	registry.MustRegister(m.ControlWeighted)
	registry.MustRegister(m.Controls)
	registry.MustRegister(m.Percentage)
	return m
}

// Observe sets every gauge from the report
func (m *Metrics) Observe(r *model.Report) {
	for _, c := range r.Controls {
		res := c.Result
		m.ControlScore.WithLabelValues(res.ControlID, res.Status.String()).Set(res.RawScore)
		m.ControlWeighted.WithLabelValues(res.ControlID).Set(res.WeightedContribution)
	}
	agg := r.Aggregate
	m.Controls.WithLabelValues(model.Compliant.String()).Set(float64(agg.Compliant))
	m.Controls.WithLabelValues(model.PartiallyCompliant.String()).Set(float64(agg.PartiallyCompliant))
	m.Controls.WithLabelValues(model.NotCompliant.String()).Set(float64(agg.NotCompliant))
	m.Percentage.WithLabelValues("overall").Set(agg.OverallPercentage)
	m.Percentage.WithLabelValues("weighted").Set(agg.WeightedPercentage)
}

// WriteTextfile writes the registry in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func exportMetrics(r *model.Report, path string) error {
	m := NewMetrics()
	m.Observe(r)
	return m.WriteTextfile(path)
}
