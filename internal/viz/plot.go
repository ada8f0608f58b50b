package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hydrosim/internal/export"
	"github.com/san-kum/hydrosim/internal/kinetics"
)

// PlotOptions size a chart.
type PlotOptions struct {
	Width  int
	Height int
}

var DefaultPlotOptions = PlotOptions{Width: 80, Height: 12}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Blue,
	asciigraph.Magenta,
}

// PlotSeries draws one series with a caption.
func PlotSeries(data []float64, caption string, opts PlotOptions) string {
	if len(data) == 0 {
		return Subtle.Render("no data to plot")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// PlotPath draws every pool of a polymer's trajectory on one chart.
func PlotPath(path *kinetics.Path, caption string, opts PlotOptions) string {
	if path == nil || len(path.States) == 0 {
		return Subtle.Render("no data to plot")
	}

	series := make([][]float64, len(path.Pools))
	for i := range path.Pools {
		series[i] = path.Pool(i)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(seriesColors[:len(series)]...),
		asciigraph.SeriesLegends(path.Pools...),
	)
	return graph
}

// PlotResult draws the parent decay of both polymers followed by the
// per-polymer pool charts, titled from the result.
func PlotResult(r *kinetics.Result, opts PlotOptions) string {
	var b strings.Builder

	b.WriteString(Title.Render(r.PlotTitle()))
	b.WriteString("\n")
	b.WriteString(Subtle.Render(r.PlotSubtitle()))
	b.WriteString("\n\n")

	b.WriteString(asciigraph.PlotMany([][]float64{r.Cellulose, r.Hemicellulose},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(fmt.Sprintf("parent polymers (g/L) over %g min", r.TimeFinal)),
		asciigraph.SeriesColors(seriesColors[0], seriesColors[1]),
		asciigraph.SeriesLegends(kinetics.Cellulose.String(), kinetics.Hemicellulose.String()),
	))

	for _, p := range kinetics.Polymers {
		b.WriteString("\n\n")
		b.WriteString(PlotPath(r.Path(p), p.String()+" pools (g/L)", opts))
	}
	return b.String()
}

// PlotColumns draws the named columns of a stored series, one chart each.
func PlotColumns(header []string, rows [][]float64, columns []string, opts PlotOptions) (string, error) {
	series, err := export.SelectColumns(header, rows, columns)
	if err != nil {
		return "", err
	}

	charts := make([]string, len(series))
	for i, s := range series {
		charts[i] = PlotSeries(s.Values, s.Name, opts)
	}
	return strings.Join(charts, "\n\n"), nil
}
