package experiment

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/hydrosim/internal/config"
	"github.com/san-kum/hydrosim/internal/kinetics"
)

// Comparison is the outcome of one integrator on shared conditions.
type Comparison struct {
	Integrator string
	Elapsed    time.Duration
	Steps      int
	Rejected   int
	// MaxError is the largest deviation of any pool at any sample from the
	// closed-form solution, in g/L.
	MaxError float64

	CelluloseDegradedPercent     float64
	HemicelluloseDegradedPercent float64

	Err error
}

// Compare runs cfg once per named integrator. A failing integrator is
// reported in its Comparison and does not stop the others.
func Compare(ctx context.Context, cfg *config.Config, registry *Registry, names []string, logger *slog.Logger) []Comparison {
	out := make([]Comparison, 0, len(names))
	for _, name := range names {
		cmp := Comparison{Integrator: name}

		c := *cfg
		c.Solver.Integrator = name
		exp, err := New(&c, registry, logger)
		if err != nil {
			cmp.Err = err
			out = append(out, cmp)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		cmp.Elapsed = time.Since(start)
		if err != nil {
			cmp.Err = err
			out = append(out, cmp)
			continue
		}

		for _, p := range kinetics.Polymers {
			path := result.Path(p)
			cmp.Steps += path.Steps
			cmp.Rejected += path.Rejected
		}
		cmp.CelluloseDegradedPercent = result.CelluloseDegradedPercent
		cmp.HemicelluloseDegradedPercent = result.HemicelluloseDegradedPercent
		cmp.MaxError, cmp.Err = ExactError(result)

		out = append(out, cmp)
	}
	return out
}

// ExactError returns the largest absolute deviation of the result from the
// closed-form solution over every pool and sample of both paths.
func ExactError(r *kinetics.Result) (float64, error) {
	worst := 0.0
	for _, p := range kinetics.Polymers {
		path := r.Path(p)
		if path == nil {
			continue
		}
		network := kinetics.NewNetwork(path.Rates)
		for i, t := range r.Time {
			exact, err := network.Exact(path.Initial, t)
			if err != nil {
				return 0, err
			}
			for _, d := range path.States[i].Sub(exact) {
				worst = math.Max(worst, math.Abs(d))
			}
		}
	}
	return worst, nil
}
