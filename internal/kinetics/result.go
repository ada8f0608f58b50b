package kinetics

import (
	"fmt"
	"strings"

	"github.com/san-kum/hydrosim/internal/analysis"
	"github.com/san-kum/hydrosim/internal/dynamo"
)

// Path is the full trajectory of one polymer's network.
type Path struct {
	Polymer         Polymer            `json:"polymer"`
	Rates           RateConstants      `json:"rates"`
	Pools           []string           `json:"pools"`
	States          []dynamo.State     `json:"states"`
	Initial         float64            `json:"initial"`
	Final           float64            `json:"final"`
	DegradedPercent float64            `json:"degraded_percent"`
	Steps           int                `json:"steps"`
	Rejected        int                `json:"rejected"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

func newPath(p Polymer, rates RateConstants, out *dynamo.Result) *Path {
	path := &Path{
		Polymer:  p,
		Rates:    rates,
		Pools:    p.Pools(),
		States:   out.States,
		Steps:    out.StepsTaken,
		Rejected: out.Rejected,
		Metrics:  out.Metrics,
	}
	if len(out.States) > 0 {
		path.Initial = out.States[0][Parent]
		path.Final = out.Final()[Parent]
	}
	path.DegradedPercent = PercentDegraded(path.Initial, path.Final)
	return path
}

// Pool returns the series of pool i across all samples.
func (p *Path) Pool(i int) []float64 {
	out := make([]float64, len(p.States))
	for j, s := range p.States {
		out[j] = s[i]
	}
	return out
}

// Peak returns the largest concentration of pool i and when it occurs.
func (p *Path) Peak(i int, times []float64) (value, at float64, err error) {
	return analysis.Peak(times, p.Pool(i))
}

// HalfLife returns the time at which half of the parent polymer is gone.
func (p *Path) HalfLife(times []float64) (float64, error) {
	return analysis.HalfLife(times, p.Pool(Parent))
}

// FinalState returns the concentrations at the end of the horizon.
func (p *Path) FinalState() dynamo.State {
	if len(p.States) == 0 {
		return nil
	}
	return p.States[len(p.States)-1]
}

// PercentDegraded is (1 - final/initial) * 100, or 0 when nothing was loaded.
func PercentDegraded(initial, final float64) float64 {
	if initial <= 0 {
		return 0
	}
	return (1 - final/initial) * 100
}

// Result is the outcome of one pretreatment simulation. The flat fields
// carry the parent-polymer series and summary scalars; the paths carry
// every pool.
type Result struct {
	Time          []float64 `json:"time"`
	Cellulose     []float64 `json:"cellulose"`
	Hemicellulose []float64 `json:"hemicellulose"`

	InitialCellulose     float64 `json:"initial_cellulose"`
	InitialHemicellulose float64 `json:"initial_hemicellulose"`
	FinalCellulose       float64 `json:"final_cellulose"`
	FinalHemicellulose   float64 `json:"final_hemicellulose"`

	CelluloseDegradedPercent     float64 `json:"cellulose_degraded_percent"`
	HemicelluloseDegradedPercent float64 `json:"hemicellulose_degraded_percent"`

	Temperature  float64 `json:"temperature"`
	SolidLoading float64 `json:"solid_loading"`
	TimeFinal    float64 `json:"time_final"`

	CellulosePath     *Path `json:"cellulose_path"`
	HemicellulosePath *Path `json:"hemicellulose_path"`
}

func newResult(c Conditions, times []float64, cell, hemi *Path) *Result {
	return &Result{
		Time:                         times,
		Cellulose:                    cell.Pool(Parent),
		Hemicellulose:                hemi.Pool(Parent),
		InitialCellulose:             cell.Initial,
		InitialHemicellulose:         hemi.Initial,
		FinalCellulose:               cell.Final,
		FinalHemicellulose:           hemi.Final,
		CelluloseDegradedPercent:     cell.DegradedPercent,
		HemicelluloseDegradedPercent: hemi.DegradedPercent,
		Temperature:                  c.Temperature,
		SolidLoading:                 c.SolidLoading,
		TimeFinal:                    c.TimeFinal,
		CellulosePath:                cell,
		HemicellulosePath:            hemi,
	}
}

// Path returns the trajectory of the given polymer.
func (r *Result) Path(p Polymer) *Path {
	if p == Hemicellulose {
		return r.HemicellulosePath
	}
	return r.CellulosePath
}

// Conditions reconstructs the inputs echoed by the result. Fractions are
// recovered from the initial loadings.
func (r *Result) Conditions() Conditions {
	c := Conditions{
		Temperature:  r.Temperature,
		SolidLoading: r.SolidLoading,
		TimeFinal:    r.TimeFinal,
	}
	if r.SolidLoading > 0 {
		c.CelluloseFraction = r.InitialCellulose / r.SolidLoading
		c.HemicelluloseFraction = r.InitialHemicellulose / r.SolidLoading
	}
	return c
}

// Severity returns the severity factor log10(R0) of the treatment.
func (r *Result) Severity() float64 {
	return analysis.SeverityFactor(r.Temperature, r.TimeFinal)
}

// Metric resolves a named scalar of the result. Besides the summary fields
// ("cellulose_degraded_percent", "final_hemicellulose", "severity", ...) it
// accepts, per polymer:
//
//	<polymer>.<pool>            final concentration, e.g. "hemicellulose.xos"
//	<polymer>.<pool>_peak       largest concentration over the horizon
//	<polymer>.<pool>_peak_time  when the peak occurs
//	<polymer>.half_life         time at which half of the parent is gone
//	<polymer>.<metric>          solver metrics such as "mass_balance_error"
//
// Half-lives beyond the horizon are reported as not found.
func (r *Result) Metric(name string) (float64, bool) {
	switch name {
	case "severity":
		return r.Severity(), true
	case "initial_cellulose":
		return r.InitialCellulose, true
	case "initial_hemicellulose":
		return r.InitialHemicellulose, true
	case "final_cellulose":
		return r.FinalCellulose, true
	case "final_hemicellulose":
		return r.FinalHemicellulose, true
	case "cellulose_degraded_percent":
		return r.CelluloseDegradedPercent, true
	case "hemicellulose_degraded_percent":
		return r.HemicelluloseDegradedPercent, true
	}

	prefix, field, ok := strings.Cut(name, ".")
	if !ok {
		return 0, false
	}
	var polymer Polymer
	if err := polymer.UnmarshalText([]byte(prefix)); err != nil {
		return 0, false
	}
	path := r.Path(polymer)
	if path == nil || len(path.States) == 0 {
		return 0, false
	}
	if field == "half_life" {
		v, err := path.HalfLife(r.Time)
		return v, err == nil
	}
	for i, pool := range path.Pools {
		switch field {
		case pool:
			return path.FinalState()[i], true
		case pool + "_peak":
			v, _, err := path.Peak(i, r.Time)
			return v, err == nil
		case pool + "_peak_time":
			_, at, err := path.Peak(i, r.Time)
			return at, err == nil
		}
	}
	v, ok := path.Metrics[field]
	return v, ok
}

// PlotTitle labels charts of this result.
func (r *Result) PlotTitle() string {
	return fmt.Sprintf("Hydrothermal degradation at %g°C", r.Temperature)
}

func (r *Result) PlotSubtitle() string {
	return fmt.Sprintf("Solid loading: %g g/L", r.SolidLoading)
}
