package kinetics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/hydrosim/internal/dynamo"
	"github.com/san-kum/hydrosim/internal/integrators"
	"github.com/san-kum/hydrosim/internal/metrics"
)

// DefaultSamples is the number of points on the output time grid.
const DefaultSamples = 200

// Engine integrates both degradation networks. An Engine is immutable once
// built and safe for concurrent use; every call builds its own solvers.
type Engine struct {
	newIntegrator func() dynamo.Integrator
	newMetrics    []func() dynamo.Metric
	solverCfg     dynamo.Config
	samples       int
	parallel      bool
	strict        bool
	logger        *slog.Logger
}

type Option func(*Engine)

// WithIntegrator sets the integrator factory. A factory is needed because
// some integrators keep scratch buffers and the two paths may run at once.
func WithIntegrator(factory func() dynamo.Integrator) Option {
	return func(e *Engine) { e.newIntegrator = factory }
}

func WithTolerance(tol dynamo.Tolerance) Option {
	return func(e *Engine) { e.solverCfg.Tolerance = tol }
}

// WithStep sets the substep of fixed-step integrators and the initial trial
// step of adaptive ones, in minutes.
func WithStep(dt float64) Option {
	return func(e *Engine) {
		if dt > 0 {
			e.solverCfg.Dt = dt
		}
	}
}

// WithSamples sets the size of the output grid; values below 2 are ignored.
func WithSamples(n int) Option {
	return func(e *Engine) {
		if n >= 2 {
			e.samples = n
		}
	}
}

// WithParallel integrates the two polymers concurrently.
func WithParallel(parallel bool) Option {
	return func(e *Engine) { e.parallel = parallel }
}

// WithStrictComposition rejects conditions whose fractions sum past 1.
func WithStrictComposition(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithMetrics replaces the per-path metrics.
func WithMetrics(factories ...func() dynamo.Metric) Option {
	return func(e *Engine) { e.newMetrics = factories }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// DefaultMetrics observe mass balance, positivity and parent depletion.
func DefaultMetrics() []func() dynamo.Metric {
	return []func() dynamo.Metric{
		func() dynamo.Metric { return metrics.NewMassBalance() },
		func() dynamo.Metric { return metrics.NewMinConcentration() },
		func() dynamo.Metric { return metrics.NewDepletion(Parent) },
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newIntegrator: func() dynamo.Integrator { return integrators.NewRK45() },
		newMetrics:    DefaultMetrics(),
		solverCfg:     dynamo.DefaultConfig(),
		samples:       DefaultSamples,
		parallel:      true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = NewEngine()

// Simulate runs the default engine: Dormand-Prince RK45 with rtol 1e-6 and
// atol 1e-8, 200 samples from 0 to c.TimeFinal.
func Simulate(c Conditions) (*Result, error) {
	return defaultEngine.Simulate(context.Background(), c)
}

// Simulate validates c, looks up the rate constants at c.Temperature and
// integrates the cellulose and hemicellulose networks independently.
func (e *Engine) Simulate(ctx context.Context, c Conditions) (*Result, error) {
	if err := c.Validate(e.strict); err != nil {
		return nil, err
	}

	times := dynamo.Linspace(0, c.TimeFinal, e.samples)
	paths := make([]*Path, len(Polymers))
	tasks := make([]dynamo.Task, len(Polymers))

	for i, polymer := range Polymers {
		rates, err := Lookup(polymer, c.Temperature)
		if err != nil {
			return nil, err
		}
		tasks[i] = func(ctx context.Context) error {
			path, err := e.integrate(ctx, polymer, rates, c.InitialLoading(polymer), times)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		}
	}

	if err := dynamo.RunTasks(ctx, e.parallel, tasks...); err != nil {
		return nil, err
	}

	result := newResult(c, times, paths[Cellulose], paths[Hemicellulose])
	e.logger.Debug("pretreatment simulated",
		"temperature", c.Temperature,
		"solid_loading", c.SolidLoading,
		"time_final", c.TimeFinal,
		"cellulose_degraded_percent", result.CelluloseDegradedPercent,
		"hemicellulose_degraded_percent", result.HemicelluloseDegradedPercent,
	)
	return result, nil
}

func (e *Engine) integrate(ctx context.Context, polymer Polymer, rates RateConstants, parent0 float64, times []float64) (*Path, error) {
	solver := dynamo.NewSolver(e.newIntegrator())
	for _, newMetric := range e.newMetrics {
		solver.AddMetric(newMetric())
	}

	out, err := solver.Solve(ctx, NewNetwork(rates), InitialState(parent0), times, e.solverCfg)
	if err != nil {
		return nil, fmt.Errorf("kinetics: integrating %s: %w", polymer, err)
	}

	e.logger.Debug("path integrated",
		"polymer", polymer.String(),
		"steps", out.StepsTaken,
		"rejected", out.Rejected,
	)
	return newPath(polymer, rates, out), nil
}
