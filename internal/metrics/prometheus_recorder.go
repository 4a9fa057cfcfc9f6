package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/zerr"
)

var _ Recorder = (*PrometheusRecorder)(nil)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	registry      *prom.Registry
	passDuration  *prom.HistogramVec
	buildDuration prom.Histogram
	artefacts     *prom.CounterVec
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder registers the build collectors with reg, or with a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "stencil",
			Name:      "pass_duration_seconds",
			Help:      "Duration of the registration and build passes",
			Buckets:   prom.DefBuckets,
		}, []string{"pass"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "stencil",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		artefacts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stencil",
			Name:      "artefacts_total",
			Help:      "Artefacts registered per builder",
		}, []string{"builder", "flavor"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stencil",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.passDuration, pr.buildDuration, pr.artefacts, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(pass Pass, d time.Duration) {
	p.passDuration.WithLabelValues(string(pass)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddArtefacts(builder, flavor string, n int) {
	p.artefacts.WithLabelValues(builder, flavor).Add(float64(n))
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome Outcome) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

// WriteTextfile writes every registered metric to path in the text
// exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics textfile"), "path", path)
	}
	return nil
}
