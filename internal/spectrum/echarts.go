package spectrum

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an interactive line chart of the spectrum. The
// output is a self-contained page suitable for opening in a browser.
func (s *Spectrum) RenderHTML(w io.Writer, title string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1100px", Height: "550px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("escaped=%d reabsorbed=%d bins=%d", s.Escaped, s.Reabsorbed, s.Bins()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frequency (Hz)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Flux (erg / Hz)"}),
	)

	centers := s.Centers()
	labels := make([]string, len(centers))
	data := make([]opts.LineData, len(centers))
	for i, c := range centers {
		labels[i] = fmt.Sprintf("%.4g", c)
		data[i] = opts.LineData{Value: s.Flux[i]}
	}
	line.SetXAxis(labels)
	line.AddSeries("emergent flux", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render spectrum chart: %w", err)
	}
	return nil
}
