package optim

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

// Goal selects whether the search looks for the smallest or largest value.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

func (g Goal) better(candidate, best float64) bool {
	if g == Maximize {
		return candidate > best
	}
	return candidate < best
}

// Parameter names understood by Apply.
const (
	ParamTemperature           = "temperature"
	ParamSolidLoading          = "solid_loading"
	ParamCelluloseFraction     = "cellulose_fraction"
	ParamHemicelluloseFraction = "hemicellulose_fraction"
	ParamTimeFinal             = "time_final"
)

// Apply overrides fields of base with the named parameter values.
func Apply(base kinetics.Conditions, params map[string]float64) (kinetics.Conditions, error) {
	c := base
	for name, v := range params {
		switch name {
		case ParamTemperature:
			c.Temperature = v
		case ParamSolidLoading:
			c.SolidLoading = v
		case ParamCelluloseFraction:
			c.CelluloseFraction = v
		case ParamHemicelluloseFraction:
			c.HemicelluloseFraction = v
		case ParamTimeFinal:
			c.TimeFinal = v
		default:
			return c, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return c, nil
}

// Simulator runs one set of conditions; *kinetics.Engine and
// *experiment.Experiment both satisfy it.
type Simulator interface {
	Simulate(ctx context.Context, c kinetics.Conditions) (*kinetics.Result, error)
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Outcome summarizes a search.
type Outcome struct {
	Best      map[string]float64
	BestValue float64
	Points    []Point
	Failed    int
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Workers bounds how many points are simulated at once; values below 1
	// mean one.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, Workers: 1}
}

// Search simulates every combination of the parameter ranges on top of base
// and picks the best value of the named result metric. Points that fail to
// simulate, such as uncalibrated temperatures, are recorded and skipped.
// Points are reported in enumeration order whatever the worker count.
func (g *GridSearch) Search(
	ctx context.Context,
	sim Simulator,
	base kinetics.Conditions,
	metricName string,
	goal Goal,
) (*Outcome, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var combos []map[string]float64
	g.enumerate(0, make(map[string]float64), &combos)

	points := make([]Point, len(combos))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.Workers, 1))
	for i, params := range combos {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			points[i].Params = params
			points[i].Value, points[i].Err = evaluate(egCtx, sim, base, params, metricName)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{Points: points, BestValue: math.Inf(1)}
	if goal == Maximize {
		out.BestValue = math.Inf(-1)
	}
	for _, point := range points {
		if point.Err != nil {
			out.Failed++
			continue
		}
		if out.Best == nil || goal.better(point.Value, out.BestValue) {
			out.BestValue = point.Value
			out.Best = point.Params
		}
	}

	if out.Best == nil {
		return out, fmt.Errorf("optim: no grid point produced metric %q", metricName)
	}
	return out, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, copyParams(current))
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := copyParams(current)
		newParams[paramName] = val
		g.enumerate(depth+1, newParams, out)
	}
}

func evaluate(ctx context.Context, sim Simulator, base kinetics.Conditions, params map[string]float64, metricName string) (float64, error) {
	c, err := Apply(base, params)
	if err != nil {
		return 0, err
	}
	result, err := sim.Simulate(ctx, c)
	if err != nil {
		return 0, err
	}
	v, ok := result.Metric(metricName)
	if !ok {
		return 0, fmt.Errorf("optim: unknown metric %q", metricName)
	}
	return v, nil
}

func copyParams(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
