package trajectory

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/odom_plotter/internal/metrics"
	"github.com/relabs-tech/odom_plotter/internal/odometry"
)

// DefaultInterval is the minimum gap between two accepted samples.
const DefaultInterval = 100 * time.Millisecond

// Sampler throttles incoming odometry and records accepted positions.
// Handle and Offer must be called from one goroutine at a time.
type Sampler struct {
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
	metrics  *metrics.Sampler
	onAccept func(Sample)

	last time.Time
	traj *Trajectory
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithInterval sets the minimum gap between accepted samples.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) { s.interval = d }
}

// WithClock replaces time.Now as the arrival clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) { s.now = now }
}

// WithLogger sets the logger used for accepted positions.
func WithLogger(l *log.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// WithMetrics counts accepted and dropped updates.
func WithMetrics(m *metrics.Sampler) Option {
	return func(s *Sampler) { s.metrics = m }
}

// WithOnAccept registers a hook called after each sample is appended.
func WithOnAccept(fn func(Sample)) Option {
	return func(s *Sampler) { s.onAccept = fn }
}

// NewSampler returns a Sampler with an empty trajectory.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		interval: DefaultInterval,
		now:      time.Now,
		logger:   log.Default(),
		traj:     New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle offers msg with the current time as its arrival time.
func (s *Sampler) Handle(msg odometry.Message) error {
	return s.Offer(s.now(), msg)
}

// Offer applies the interval filter to msg arriving at at.
// A throttled message is discarded without reading its position. Otherwise
// the arrival time becomes the last accepted time before the position is
// extracted, and any extraction error is returned as is.
func (s *Sampler) Offer(at time.Time, msg odometry.Message) error {
	if !s.last.IsZero() && at.Sub(s.last) < s.interval {
		if s.metrics != nil {
			s.metrics.Dropped.Inc()
		}
		return nil
	}
	s.last = at

	x, y, err := msg.Position()
	if err != nil {
		return fmt.Errorf("extract position: %w", err)
	}

	s.logger.Printf("Position -> x: %v, y: %v", x, y)

	sample := Sample{X: x, Y: y}
	s.traj.Append(sample)

	if s.metrics != nil {
		s.metrics.Accepted.Inc()
		s.metrics.TrajectoryLength.Set(float64(s.traj.Len()))
	}
	if s.onAccept != nil {
		s.onAccept(sample)
	}
	return nil
}

// Trajectory returns the sampler's trajectory.
func (s *Sampler) Trajectory() *Trajectory {
	return s.traj
}
