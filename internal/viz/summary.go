package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

const barWidth = 30

// Summary renders a panel with the inputs and outcome of a simulation.
func Summary(r *kinetics.Result) string {
	var b strings.Builder

	b.WriteString(Title.Render(r.PlotTitle()))
	b.WriteString("\n")
	b.WriteString(Subtle.Render(r.PlotSubtitle()))
	b.WriteString("\n\n")

	c := r.Conditions()
	b.WriteString(row("time", fmt.Sprintf("%g min", r.TimeFinal)))
	b.WriteString(row("cellulose fraction", fmt.Sprintf("%.3f", c.CelluloseFraction)))
	b.WriteString(row("hemicellulose fraction", fmt.Sprintf("%.3f", c.HemicelluloseFraction)))
	b.WriteString(row("samples", fmt.Sprintf("%d", len(r.Time))))
	b.WriteString(row("severity (log R0)", fmt.Sprintf("%.2f", r.Severity())))

	for _, p := range kinetics.Polymers {
		path := r.Path(p)
		if path == nil {
			continue
		}
		b.WriteString("\n")
		b.WriteString(Separator(barWidth + 24))
		b.WriteString("\n")
		b.WriteString(polymerBlock(path, r.Time))
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s\n",
		MetricLabel.Width(24).Render(label),
		MetricValue.Render(value),
	)
}

func polymerBlock(path *kinetics.Path, times []float64) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(path.Polymer.String()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		MetricLabel.Width(24).Render("degraded"),
		ProgressBar(path.DegradedPercent/100, barWidth),
		MetricValue.Render(fmt.Sprintf("%.2f%%", path.DegradedPercent)),
	))
	b.WriteString(row("initial", fmt.Sprintf("%.4f g/L", path.Initial)))
	if halfLife, err := path.HalfLife(times); err == nil {
		b.WriteString(row("half-life", fmt.Sprintf("%.2f min", halfLife)))
	}
	if peak, at, err := path.Peak(kinetics.Oligomer, times); err == nil {
		b.WriteString(row("peak "+path.Pools[kinetics.Oligomer], fmt.Sprintf("%.4f g/L at %.1f min", peak, at)))
	}

	final := path.FinalState()
	for i, pool := range path.Pools {
		if i >= len(final) {
			break
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			MetricLabel.Width(24).Render("final "+pool),
			lipgloss.NewStyle().Width(12).Render(fmt.Sprintf("%.4f", final[i])),
			Sparkline(path.Pool(i), 24),
		))
	}
	return b.String()
}
