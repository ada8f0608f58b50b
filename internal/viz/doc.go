// Package viz renders simulation results for the terminal.
//
//   - [Summary]: lipgloss panel with the conditions, final concentrations
//     and degradation bars of both polymers
//   - [PlotPath], [PlotSeries]: asciigraph line charts of pool trajectories
//   - [CompareTable]: integrator accuracy comparison against the closed form
//
// Styles degrade to plain text when the output is not a terminal.
package viz
