package viz

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/hydrosim/internal/experiment"
)

// CompareTable renders integrator comparisons, one row per integrator.
func CompareTable(rows []experiment.Comparison) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("integrator", "steps", "rejected", "max |err| g/L", "cellulose %", "hemicellulose %", "time")

	failed := make(map[int]bool)
	for i, c := range rows {
		if c.Err != nil {
			failed[i] = true
			t.Row(c.Integrator, "-", "-", "-", "-", "-", c.Err.Error())
			continue
		}
		t.Row(
			c.Integrator,
			fmt.Sprintf("%d", c.Steps),
			fmt.Sprintf("%d", c.Rejected),
			fmt.Sprintf("%.3e", c.MaxError),
			fmt.Sprintf("%.4f", c.CelluloseDegradedPercent),
			fmt.Sprintf("%.4f", c.HemicelluloseDegradedPercent),
			c.Elapsed.Round(time.Microsecond).String(),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		cell := lipgloss.NewStyle().Padding(0, 1)
		switch {
		case row == table.HeaderRow:
			return cell.Bold(true).Foreground(lipgloss.Color("#00ffff"))
		case failed[row]:
			return cell.Inherit(ErrorText)
		case col == 0:
			return cell.Inherit(MetricLabel)
		default:
			return cell.Inherit(MetricValue)
		}
	})
	return t.Render()
}
