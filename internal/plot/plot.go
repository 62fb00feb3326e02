// Package plot renders a trajectory as a 2D line plot.
package plot

import (
	"image/color"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/odom_plotter/internal/trajectory"
)

const (
	Title       = "Odometry X-Y Path"
	XLabel      = "X Position"
	YLabel      = "Y Position"
	LegendLabel = "Odometry Path"
)

var pathColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}

// Build lays out the trajectory as a single line with title, axis labels,
// legend entry and grid. An empty trajectory gives an empty plot.
func Build(traj *trajectory.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(traj)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = pathColor
	line.LineStyle.Width = vg.Points(1.5)

	// gonum cannot stroke a zero-length line, keep only its legend entry
	if traj.Len() > 0 {
		p.Add(line)
	}
	p.Legend.Add(LegendLabel, line)
	p.Legend.Top = true

	return p, nil
}

// Size is the rendered page size of a plot.
type Size struct {
	Width  vg.Length
	Height vg.Length
}

// SizeInches converts inch dimensions to a Size.
func SizeInches(w, h float64) Size {
	return Size{Width: vg.Length(w) * vg.Inch, Height: vg.Length(h) * vg.Inch}
}

// WritePlot encodes p in the given format ("png", "svg", "pdf", ...).
func WritePlot(p *plot.Plot, size Size, output io.Writer, format string) error {
	w, err := p.WriterTo(size.Width, size.Height, format)
	if err != nil {
		return err
	}
	_, err = w.WriteTo(output)
	return err
}

func combineErrors(errors ...error) (err error) {
	for _, e := range errors {
		switch {
		case e == nil:
			// ignore
		case err == nil:
			err = e
		default:
			err = multierror.Append(err, e)
		}
	}
	return err
}

// WriteClosePlot encodes p to output and closes it, reporting both errors.
func WriteClosePlot(p *plot.Plot, size Size, output io.WriteCloser, format string) (err error) {
	defer func() {
		e := output.Close()
		err = combineErrors(err, e)
	}()
	return WritePlot(p, size, output, format)
}

// SavePlot writes p to path.
func SavePlot(p *plot.Plot, size Size, path string, format string) error {
	output, err := os.Create(path)
	if err != nil {
		return err
	}
	return WriteClosePlot(p, size, output, format)
}

// Viewer presents a finished plot and returns once it has been dismissed.
type Viewer interface {
	Show(p *plot.Plot) error
}

// Render builds the trajectory plot and hands it to v.
func Render(traj *trajectory.Trajectory, v Viewer) error {
	p, err := Build(traj)
	if err != nil {
		return err
	}
	return v.Show(p)
}
