package trajectory

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sample is one accepted planar position.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trajectory is the append-only, insertion-ordered list of accepted samples.
// It is not safe for concurrent use; a single Sampler owns it.
type Trajectory struct {
	xs []float64
	ys []float64
}

// New returns an empty trajectory.
func New() *Trajectory {
	return &Trajectory{}
}

// Append adds a sample at the end.
func (t *Trajectory) Append(s Sample) {
	t.xs = append(t.xs, s.X)
	t.ys = append(t.ys, s.Y)
}

// Len returns the number of samples.
func (t *Trajectory) Len() int {
	return len(t.xs)
}

// XY returns the i-th sample's coordinates. Together with Len it satisfies
// gonum's plotter.XYer.
func (t *Trajectory) XY(i int) (x, y float64) {
	return t.xs[i], t.ys[i]
}

// Samples returns a copy of the samples in insertion order.
func (t *Trajectory) Samples() []Sample {
	out := make([]Sample, len(t.xs))
	for i := range t.xs {
		out[i] = Sample{X: t.xs[i], Y: t.ys[i]}
	}
	return out
}

// Summary describes the extent of a trajectory.
type Summary struct {
	Samples    int
	PathLength float64 // sum of straight segments between consecutive samples
	MinX, MaxX float64
	MinY, MaxY float64
}

// Summary computes the sample count, travelled distance and bounding box.
// The bounding box is zero for an empty trajectory.
func (t *Trajectory) Summary() Summary {
	n := len(t.xs)
	s := Summary{Samples: n}
	if n == 0 {
		return s
	}

	s.MinX, s.MaxX = floats.Min(t.xs), floats.Max(t.xs)
	s.MinY, s.MaxY = floats.Min(t.ys), floats.Max(t.ys)
	if n < 2 {
		return s
	}

	dx := make([]float64, n-1)
	dy := make([]float64, n-1)
	floats.SubTo(dx, t.xs[1:], t.xs[:n-1])
	floats.SubTo(dy, t.ys[1:], t.ys[:n-1])

	seg := make([]float64, n-1)
	for i := range seg {
		seg[i] = math.Hypot(dx[i], dy[i])
	}
	s.PathLength = floats.Sum(seg)
	return s
}
