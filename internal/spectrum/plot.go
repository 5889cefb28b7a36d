package spectrum

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WritePNG renders the spectrum as a line plot. The path extension
// selects the image format; callers pass .png.
func (s *Spectrum) WritePNG(path, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Flux (erg / Hz)"

	pts := make(plotter.XYs, 0, s.Bins())
	for i, center := range s.Centers() {
		pts = append(pts, plotter.XY{X: center, Y: s.Flux[i]})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build flux line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("emergent flux", line)
	p.Legend.Top = true

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save spectrum plot: %w", err)
	}
	return nil
}
