package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/hydrosim/internal/config"
	"github.com/san-kum/hydrosim/internal/dynamo"
	"github.com/san-kum/hydrosim/internal/kinetics"
)

// Experiment binds a configuration to an engine built from it.
type Experiment struct {
	cfg    *config.Config
	engine *kinetics.Engine
}

// New resolves the configured integrator and metrics and builds the engine.
func New(cfg *config.Config, registry *Registry, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory, err := registry.IntegratorFactory(cfg.Solver.Integrator)
	if err != nil {
		return nil, err
	}

	engine := kinetics.NewEngine(
		kinetics.WithIntegrator(factory),
		kinetics.WithStep(cfg.Solver.Dt),
		kinetics.WithTolerance(dynamo.Tolerance{Rel: cfg.Solver.RelTol, Abs: cfg.Solver.AbsTol}),
		kinetics.WithSamples(cfg.Solver.Samples),
		kinetics.WithParallel(cfg.Solver.Parallel),
		kinetics.WithStrictComposition(cfg.Solver.StrictComposition),
		kinetics.WithMetrics(registry.DefaultMetrics()...),
		kinetics.WithLogger(logger),
	)

	return &Experiment{cfg: cfg, engine: engine}, nil
}

// Run simulates the configured conditions.
func (e *Experiment) Run(ctx context.Context) (*kinetics.Result, error) {
	return e.Simulate(ctx, e.cfg.Conditions)
}

// Simulate runs the experiment's engine on other conditions, as a sweep does.
func (e *Experiment) Simulate(ctx context.Context, c kinetics.Conditions) (*kinetics.Result, error) {
	if e.engine == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.engine.Simulate(ctx, c)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Engine returns the underlying engine for callers that serve many requests.
func (e *Experiment) Engine() *kinetics.Engine { return e.engine }
