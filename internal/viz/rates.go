package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

// RatesTable renders the rate constants of a polymer at every calibration
// temperature.
func RatesTable(p kinetics.Polymer) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("°C", "k1", "k2", "k3", "k4", "k5", "k6")

	rates := kinetics.Table(p)
	for _, temp := range kinetics.CalibrationTemperatures() {
		row := []string{fmt.Sprintf("%g", temp)}
		for _, k := range rates[temp].Array() {
			row = append(row, fmt.Sprintf("%.4f", k))
		}
		t.Row(row...)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		cell := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return cell.Bold(true).Foreground(lipgloss.Color("#00ffff"))
		}
		if col == 0 {
			return cell.Inherit(MetricLabel)
		}
		return cell.Inherit(MetricValue)
	})

	return Title.Render(p.String()+" (1/min)") + "\n" + t.Render()
}
