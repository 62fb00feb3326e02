package plot

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
)

// FileViewer saves the plot to Path. The format comes from the extension.
type FileViewer struct {
	Path string
	Size Size
}

func (v FileViewer) Show(p *plot.Plot) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(v.Path)), ".")
	if format == "" {
		format = "png"
	}
	if err := SavePlot(p, v.Size, v.Path, format); err != nil {
		return fmt.Errorf("save plot to %s: %w", v.Path, err)
	}
	return nil
}

// ExternalViewer writes a temporary PNG and opens it with Command,
// blocking until the command exits.
type ExternalViewer struct {
	Command string
	Args    []string
	Size    Size
}

// NewExternalViewer splits a command line such as "feh --scale-down".
func NewExternalViewer(commandLine string, size Size) (ExternalViewer, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return ExternalViewer{}, fmt.Errorf("empty viewer command")
	}
	return ExternalViewer{Command: fields[0], Args: fields[1:], Size: size}, nil
}

func (v ExternalViewer) Show(p *plot.Plot) (err error) {
	f, err := os.CreateTemp("", "odometry-*.png")
	if err != nil {
		return err
	}
	defer func() {
		e := os.Remove(f.Name())
		err = combineErrors(err, e)
	}()
	if err := WriteClosePlot(p, v.Size, f, "png"); err != nil {
		return err
	}

	args := append(append([]string{}, v.Args...), f.Name())
	cmd := exec.Command(v.Command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("plot viewer %s: %w", v.Command, err)
	}
	return nil
}

// NoneViewer discards the plot.
type NoneViewer struct{}

func (NoneViewer) Show(*plot.Plot) error { return nil }
