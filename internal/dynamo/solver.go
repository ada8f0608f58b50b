package dynamo

import (
	"context"
	"fmt"
	"math"
)

// ctxCheckInterval is how many integrator steps run between context checks
// inside one sample interval.
const ctxCheckInterval = 256

// Solver drives an integrator across a grid of sample times.
type Solver struct {
	integrator Integrator
	metrics    []Metric
}

func NewSolver(integrator Integrator) *Solver {
	return &Solver{
		integrator: integrator,
		metrics:    make([]Metric, 0),
	}
}

func (s *Solver) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Solve integrates dyn from x0 at times[0] and records the state at every
// sample time. Adaptive integrators pick their own steps and are clipped to
// land exactly on each sample; fixed-step integrators take equal substeps no
// longer than cfg.Dt.
func (s *Solver) Solve(ctx context.Context, dyn System, x0 State, times []float64, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system expects %d", ErrDimensionMismatch, len(x0), dyn.StateDim())
	}
	if err := validateGrid(times); err != nil {
		return nil, err
	}

	result := &Result{
		States:  make([]State, 0, len(times)),
		Times:   make([]float64, 0, len(times)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	dt := cfg.Dt
	s.record(result, x, times[0])

	for i := 1; i < len(times); i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		next, nextDt, err := s.advance(ctx, dyn, x, times[i-1], times[i], dt, cfg, result)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		if err != nil {
			return result, &SimulationError{Step: i, Time: times[i-1], State: x, Wrapped: err}
		}
		if cfg.ValidateState && !next.IsValid() {
			return result, &SimulationError{Step: i, Time: times[i], State: next, Wrapped: ErrInvalidState}
		}

		x, dt = next, nextDt
		s.record(result, x, times[i])
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Solver) record(result *Result, x State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
}

// advance integrates from t0 to t1. The context is polled every
// ctxCheckInterval steps, so a long interval cannot outlive the caller.
func (s *Solver) advance(ctx context.Context, dyn System, x State, t0, t1, dt float64, cfg Config, result *Result) (State, float64, error) {
	adaptive, ok := s.integrator.(AdaptiveIntegrator)
	if !ok {
		n := int(math.Ceil((t1-t0)/cfg.Dt - 1e-9))
		if n < 1 {
			n = 1
		}
		h := (t1 - t0) / float64(n)
		for k := 0; k < n; k++ {
			if k%ctxCheckInterval == ctxCheckInterval-1 {
				if err := ctx.Err(); err != nil {
					return x, dt, err
				}
			}
			x = s.integrator.Step(dyn, x, t0+float64(k)*h, h)
			result.StepsTaken++
		}
		return x, dt, nil
	}

	t := t0
	for attempts := 1; t < t1; attempts++ {
		if attempts%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return x, dt, err
			}
		}

		h := math.Min(dt, cfg.MaxDt)
		last := false
		if t+h >= t1 {
			h = t1 - t
			last = true
		}

		xNew, hNext, accepted := adaptive.StepAdaptive(dyn, x, t, h, cfg.Tolerance)
		if !accepted {
			result.Rejected++
			if hNext < cfg.MinDt {
				return x, dt, ErrStepTooSmall
			}
			dt = hNext
			continue
		}

		x = xNew
		result.StepsTaken++
		if last {
			t = t1
			// clipped steps never grow the step size
			if hNext < dt {
				dt = hNext
			}
		} else {
			t += h
			dt = hNext
		}
	}

	return x, dt, nil
}

func (s *Solver) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.MaxDt <= 0 {
		return fmt.Errorf("max dt must be positive, got %f", cfg.MaxDt)
	}
	if _, ok := s.integrator.(AdaptiveIntegrator); ok {
		if cfg.Tolerance.Rel <= 0 && cfg.Tolerance.Abs <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
	}
	return nil
}
