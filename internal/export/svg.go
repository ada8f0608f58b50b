package export

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"
)

// Series is one named line of a chart.
type Series struct {
	Name   string
	Values []float64
}

// ChartOptions size and label an SVG chart.
type ChartOptions struct {
	Width, Height int
	Title         string
	XLabel        string
}

var DefaultChartOptions = ChartOptions{Width: 800, Height: 480, XLabel: "time (min)"}

var palette = []string{"#ff4466", "#00cc88", "#ffaa00", "#3399ff", "#cc66ff", "#00cccc", "#999999"}

const margin = 48.0

// WriteSVG draws series against times as polylines on shared axes.
func WriteSVG(w io.Writer, times []float64, series []Series, opts ChartOptions) error {
	if len(times) < 2 {
		return fmt.Errorf("export: need at least 2 samples, got %d", len(times))
	}
	for _, s := range series {
		if len(s.Values) != len(times) {
			return fmt.Errorf("export: series %q has %d values for %d times", s.Name, len(s.Values), len(times))
		}
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if len(series) == 0 {
		minY, maxY = 0, 1
	}
	minY = math.Min(minY, 0)
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	maxY += rangeY * 0.05
	rangeY = maxY - minY

	width, height := float64(opts.Width), float64(opts.Height)
	plotW, plotH := width-2*margin, height-2*margin
	px := func(x float64) float64 { return margin + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return height - margin - (y-minY)/rangeY*plotH }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="12">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	if opts.Title != "" {
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" fill="#ffffff" text-anchor="middle" font-size="14">%s</text>
`, width/2, margin/2, html.EscapeString(opts.Title))
	}

	fmt.Fprintf(&sb, `<g stroke="#444466" fill="none">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
`, margin, height-margin, width-margin, height-margin, margin, margin, margin, height-margin)

	fmt.Fprintf(&sb, `<g fill="#888899">
<text x="%.1f" y="%.1f" text-anchor="start">%g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" text-anchor="end">%.3g</text>
<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>
</g>
`,
		margin, height-margin+16, minX,
		width-margin, height-margin+16, maxX,
		margin-4, height-margin, minY,
		margin-4, margin+4, maxY,
		width/2, height-margin/4, html.EscapeString(opts.XLabel))

	for i, s := range series {
		color := palette[i%len(palette)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j, v := range s.Values {
			if j > 0 {
				sb.WriteString(" L")
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", px(times[j]), py(v))
		}
		sb.WriteString("\"/>\n")

		ly := margin + 16*float64(i)
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/><text x="%.1f" y="%.1f" fill="#cccccc">%s</text>
`, width-margin-150, ly, color, width-margin-134, ly+9, html.EscapeString(s.Name))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// SelectColumns picks the named columns of a stored series as chart series.
// header[0] is the time column.
func SelectColumns(header []string, rows [][]float64, names []string) ([]Series, error) {
	out := make([]Series, 0, len(names))
	for _, name := range names {
		idx := -1
		for i, h := range header[1:] {
			if h == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("export: unknown column %q", name)
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			if idx < len(row) {
				values[i] = row[idx]
			}
		}
		out = append(out, Series{Name: name, Values: values})
	}
	return out, nil
}
