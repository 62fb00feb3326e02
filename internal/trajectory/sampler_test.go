package trajectory

import (
	"bytes"
	"errors"
	"log"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/odom_plotter/internal/metrics"
	"github.com/relabs-tech/odom_plotter/internal/odometry"
)

var epoch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return epoch.Add(time.Duration(sec * float64(time.Second)))
}

type point struct{ x, y float64 }

func (p point) Position() (float64, float64, error) { return p.x, p.y, nil }

type failing struct{ calls *int }

func (f failing) Position() (float64, float64, error) {
	*f.calls++
	return 0, 0, errors.New("boom")
}

func quietSampler(opts ...Option) *Sampler {
	return NewSampler(append([]Option{WithLogger(log.New(&bytes.Buffer{}, "", 0))}, opts...)...)
}

func TestSampler_DropsUpdatesInsideInterval(t *testing.T) {
	s := quietSampler()

	updates := []struct {
		t float64
		p point
	}{
		{0.0, point{0, 0}},
		{0.05, point{1, 1}},
		{0.12, point{2, 2}},
		{0.25, point{3, 3}},
	}
	for _, u := range updates {
		require.NoError(t, s.Offer(at(u.t), u.p))
	}

	assert.Equal(t, []Sample{{0, 0}, {2, 2}, {3, 3}}, s.Trajectory().Samples())
}

func TestSampler_AcceptsExactlyAtInterval(t *testing.T) {
	s := quietSampler()
	require.NoError(t, s.Offer(epoch, point{0, 0}))
	require.NoError(t, s.Offer(epoch.Add(DefaultInterval), point{1, 1}))
	require.NoError(t, s.Offer(epoch.Add(DefaultInterval+time.Nanosecond), point{2, 2}))

	assert.Equal(t, []Sample{{0, 0}, {1, 1}}, s.Trajectory().Samples())
}

func TestSampler_AcceptedSamplesKeepOrderAndSpacing(t *testing.T) {
	rng := rand.New(rand.NewSource(1664))

	for trial := 0; trial < 20; trial++ {
		var accepted []time.Time
		s := quietSampler()

		now := epoch
		n := 200 + rng.Intn(200)
		for i := 0; i < n; i++ {
			now = now.Add(time.Duration(rng.Intn(80)+1) * time.Millisecond)
			before := s.Trajectory().Len()
			require.NoError(t, s.Offer(now, point{float64(i), float64(-i)}))
			if s.Trajectory().Len() > before {
				accepted = append(accepted, now)
			}
		}

		samples := s.Trajectory().Samples()
		require.Len(t, samples, len(accepted))
		for i := 1; i < len(samples); i++ {
			assert.Less(t, samples[i-1].X, samples[i].X, "order")
			assert.True(t, accepted[i].Sub(accepted[i-1]) >= DefaultInterval, "spacing")
		}
	}
}

func TestSampler_ThrottledMessageIsNotDecoded(t *testing.T) {
	s := quietSampler()
	require.NoError(t, s.Offer(at(0), point{0, 0}))

	calls := 0
	require.NoError(t, s.Offer(at(0.01), failing{&calls}))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, s.Trajectory().Len())
}

func TestSampler_ExtractionErrorPropagates(t *testing.T) {
	s := quietSampler()
	calls := 0
	err := s.Offer(at(0), failing{&calls})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Trajectory().Len())

	// the failed update still consumed the interval window
	require.NoError(t, s.Offer(at(0.05), point{1, 1}))
	assert.Equal(t, 0, s.Trajectory().Len())
	require.NoError(t, s.Offer(at(0.1), point{2, 2}))
	assert.Equal(t, []Sample{{2, 2}}, s.Trajectory().Samples())
}

func TestSampler_RawMessage(t *testing.T) {
	s := quietSampler()
	require.NoError(t, s.Offer(at(0), odometry.RawMessage(`{"pose":{"pose":{"position":{"x":4.5,"y":-1}}}}`)))
	assert.Equal(t, []Sample{{4.5, -1}}, s.Trajectory().Samples())

	err := s.Offer(at(1), odometry.RawMessage(`{"twist":{}}`))
	assert.ErrorIs(t, err, odometry.ErrNoPosition)
}

func TestSampler_LogsAcceptedPositions(t *testing.T) {
	var buf bytes.Buffer
	s := NewSampler(WithLogger(log.New(&buf, "", 0)))

	require.NoError(t, s.Offer(at(0), point{1.5, -2}))
	require.NoError(t, s.Offer(at(0.01), point{9, 9}))

	assert.Equal(t, "Position -> x: 1.5, y: -2\n", buf.String())
}

func TestSampler_HandleUsesClock(t *testing.T) {
	now := epoch
	s := quietSampler(WithClock(func() time.Time { return now }), WithInterval(time.Second))

	require.NoError(t, s.Handle(point{0, 0}))
	now = now.Add(500 * time.Millisecond)
	require.NoError(t, s.Handle(point{1, 1}))
	now = now.Add(500 * time.Millisecond)
	require.NoError(t, s.Handle(point{2, 2}))

	assert.Equal(t, []Sample{{0, 0}, {2, 2}}, s.Trajectory().Samples())
}

func TestSampler_MetricsAndHook(t *testing.T) {
	m := metrics.NewSampler()
	var seen []Sample
	s := quietSampler(WithMetrics(m), WithOnAccept(func(smp Sample) { seen = append(seen, smp) }))

	for i, sec := range []float64{0, 0.02, 0.04, 0.2, 0.21} {
		require.NoError(t, s.Offer(at(sec), point{float64(i), 0}))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accepted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Dropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TrajectoryLength))
	assert.Equal(t, []Sample{{0, 0}, {3, 0}}, seen)
}
