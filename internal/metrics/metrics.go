package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sampler collects counters for the odometry sampling path.
type Sampler struct {
	Accepted         prometheus.Counter
	Dropped          prometheus.Counter
	InboxOverflow    prometheus.Counter
	TrajectoryLength prometheus.Gauge

	registry *prometheus.Registry
}

// NewSampler creates the collectors and registers them on a private registry,
// so several instances (tests, multiple subscribers) never collide.
func NewSampler() *Sampler {
	m := &Sampler{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odom_samples_accepted_total",
			Help: "Odometry updates accepted into the trajectory",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odom_samples_dropped_total",
			Help: "Odometry updates discarded by the sample interval filter",
		}),
		InboxOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "odom_inbox_overflow_total",
			Help: "Pending odometry messages evicted because the inbox was full",
		}),
		TrajectoryLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "odom_trajectory_length",
			Help: "Number of samples in the trajectory",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Accepted, m.Dropped, m.InboxOverflow, m.TrajectoryLength)
	return m
}

// Handler exposes the collectors in the Prometheus text format.
func (m *Sampler) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
