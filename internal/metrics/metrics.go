package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "datagen"

// Collector counts pipeline activity. A nil *Collector is valid and records nothing.
type Collector struct {
	registry       *prometheus.Registry
	GuidedAttempts prometheus.Counter
	StageFailures  *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	Records        prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		GuidedAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_attempts_total",
			Help:      "Guided generations started.",
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guided_stage_failures_total",
			Help:      "Guided pipeline stage failures by stage.",
		}, []string{"stage"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_values_total",
			Help:      "Values produced by the fallback synthesizer, by reason.",
		}, []string{"reason"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Records produced by the record synthesizer.",
		}),
	}
	c.registry.MustRegister(c.GuidedAttempts, c.StageFailures, c.Fallbacks, c.Records)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) GuidedAttempt() {
	if c != nil {
		c.GuidedAttempts.Inc()
	}
}

func (c *Collector) StageFailed(stage string) {
	if c != nil {
		c.StageFailures.WithLabelValues(stage).Inc()
	}
}

func (c *Collector) Fallback(reason string) {
	if c != nil {
		c.Fallbacks.WithLabelValues(reason).Inc()
	}
}

func (c *Collector) RecordsGenerated(n int) {
	if c != nil && n > 0 {
		c.Records.Add(float64(n))
	}
}

// Summary gathers every counter into a flat map keyed by metric name, with
// label values appended as name{value}.
func (c *Collector) Summary() (map[string]float64, error) {
	out := make(map[string]float64)
	if c == nil {
		return out, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out[seriesName(mf.GetName(), m)] += m.GetCounter().GetValue()
		}
	}
	return out, nil
}

func seriesName(name string, m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return name
	}
	name += "{"
	for i, l := range labels {
		if i > 0 {
			name += ","
		}
		name += l.GetValue()
	}
	return name + "}"
}
