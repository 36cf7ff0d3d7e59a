package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/gridpde/internal/dynamo"
)

const namespace = "gridpde"

// Prometheus records controller progress on its own registry. It is safe
// for concurrent runs.
type Prometheus struct {
	registry *prometheus.Registry

	steps       *prometheus.CounterVec
	dt          prometheus.Gauge
	simTime     prometheus.Gauge
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Prometheus{
		registry: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "steps_total",
			Help:      "Solver steps by outcome",
		}, []string{"outcome"}),
		dt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "dt",
			Help:      "Size of the last attempted step",
		}),
		simTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "time",
			Help:      "Simulation time reached by the last accepted step",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "runs_total",
			Help:      "Finished runs by stop reason",
		}, []string{"reason"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"scheme"}),
	}
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) OnStep(t, dt float64, accepted bool) {
	p.dt.Set(dt)
	if accepted {
		p.steps.WithLabelValues("accepted").Inc()
		p.simTime.Set(t)
		return
	}
	p.steps.WithLabelValues("rejected").Inc()
}

func (p *Prometheus) OnFinish(info dynamo.Info) {
	reason := info.StopReason
	if reason == "" {
		reason = "unknown"
	}
	p.runs.WithLabelValues(reason).Inc()
	p.runDuration.WithLabelValues(info.Scheme).Observe(info.Duration.Seconds())
}

// WriteTextfile writes the current values in the text exposition format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
