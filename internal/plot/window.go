package plot

import (
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vggio"
)

const defaultDPI = 96

type plotWidget struct {
	plot *plot.Plot
	dpi  int
}

func (w *plotWidget) Layout(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	wAdjusted := vg.Points(float64(size.X) * vg.Inch.Points() / float64(w.dpi))
	hAdjusted := vg.Points(float64(size.Y) * vg.Inch.Points() / float64(w.dpi))
	cnv := vggio.New(gtx, wAdjusted, hAdjusted, vggio.UseDPI(w.dpi))
	w.plot.Draw(draw.New(cnv))
	return layout.Dimensions{Size: size}
}

// WindowViewer opens a native window showing the plot. Gio owns the main
// goroutine, so Show does not return: once the window is closed (Q, Esc or
// the window manager) OnClose runs and the process exits.
type WindowViewer struct {
	Size    Size
	DPI     int
	OnClose func()
}

func (v WindowViewer) Show(p *plot.Plot) error {
	dpi := v.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	widget := &plotWidget{plot: p, dpi: dpi}

	go func() {
		win := app.NewWindow(
			app.Title(Title),
			app.Size(
				unit.Px(float32(v.Size.Width.Points()*float64(dpi)/vg.Inch.Points())),
				unit.Px(float32(v.Size.Height.Points()*float64(dpi)/vg.Inch.Points())),
			),
		)

		for e := range win.Events() {
			switch e := e.(type) {
			case system.FrameEvent:
				ops := new(op.Ops)
				gtx := layout.NewContext(ops, e)
				layout.UniformInset(unit.Dp(20)).Layout(gtx, widget.Layout)
				e.Frame(ops)

			case key.Event:
				switch e.Name {
				case "Q", key.NameEscape:
					win.Close()
				}

			case system.DestroyEvent:
				code := 0
				if e.Err != nil {
					log.Printf("plot: window error: %v", e.Err)
					code = 1
				}
				if v.OnClose != nil {
					v.OnClose()
				}
				os.Exit(code)
			}
		}
	}()

	app.Main()
	return nil
}
