package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

type decay struct{}

func (d *decay) Derive(x State, t float64) State { return State{-x[0]} }
func (d *decay) StateDim() int                   { return 1 }

type euler struct{}

func (e *euler) Step(dyn System, x State, t float64, dt float64) State {
	dx := dyn.Derive(x, t)
	return State{x[0] + dt*dx[0]}
}

// heunEuler is a minimal embedded pair for exercising the adaptive path.
type heunEuler struct{}

func (h *heunEuler) Step(dyn System, x State, t, dt float64) State {
	next, _, _ := h.StepAdaptive(dyn, x, t, dt, Tolerance{Rel: 1, Abs: 1})
	return next
}

func (h *heunEuler) StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (State, float64, bool) {
	k1 := dyn.Derive(x, t)
	xe := x.Add(k1.Scale(dt))
	k2 := dyn.Derive(xe, t+dt)
	xh := x.Add(k1.Add(k2).Scale(dt / 2))

	errMax := 0.0
	for i := range xh {
		sc := tol.Abs + tol.Rel*math.Abs(xh[i])
		errMax = math.Max(errMax, math.Abs(xh[i]-xe[i])/sc)
	}
	if errMax > 1 {
		return x, dt / 2, false
	}
	return xh, dt * 1.5, true
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(x State, t float64) {
	m.count++
	m.sum += x[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSolverFixedStep(t *testing.T) {
	solver := NewSolver(&euler{})

	cfg := DefaultConfig()
	cfg.Dt = 0.001

	times := Linspace(0, 1, 11)
	result, err := solver.Solve(context.Background(), &decay{}, State{1.0}, times, cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if result.StepsTaken != 1000 {
		t.Errorf("expected 1000 substeps, got %d", result.StepsTaken)
	}

	expected := math.Exp(-1.0)
	if got := result.Final()[0]; math.Abs(got-expected) > 1e-3 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, got)
	}
}

func TestSolverAdaptive(t *testing.T) {
	solver := NewSolver(&heunEuler{})

	cfg := DefaultConfig()
	cfg.Dt = 0.5

	times := Linspace(0, 1, 11)
	result, err := solver.Solve(context.Background(), &decay{}, State{1.0}, times, cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	for i := range times {
		if result.Times[i] != times[i] {
			t.Errorf("sample %d at t=%v, want %v", i, result.Times[i], times[i])
		}
	}
	if result.Rejected == 0 {
		t.Error("expected the oversized first trial step to be rejected")
	}

	expected := math.Exp(-1.0)
	if got := result.Final()[0]; math.Abs(got-expected) > 1e-4 {
		t.Errorf("expected final state ~%.6f, got %.6f", expected, got)
	}
}

func TestSolverStepTooSmall(t *testing.T) {
	solver := NewSolver(&heunEuler{})

	cfg := DefaultConfig()
	cfg.Tolerance = Tolerance{Rel: 1e-300}
	cfg.MinDt = 1e-3

	_, err := solver.Solve(context.Background(), &decay{}, State{1.0}, Linspace(0, 1, 3), cfg)
	if !errors.Is(err, ErrStepTooSmall) {
		t.Fatalf("expected ErrStepTooSmall, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 1 {
		t.Errorf("expected failure at step 1, got %d", simErr.Step)
	}
}

func TestSolverInvalidInput(t *testing.T) {
	solver := NewSolver(&euler{})

	tests := []struct {
		name  string
		x0    State
		times []float64
		cfg   Config
		want  error
	}{
		{"zero dt", State{1}, []float64{0, 1}, Config{Dt: 0, MaxDt: 1}, nil},
		{"negative dt", State{1}, []float64{0, 1}, Config{Dt: -0.1, MaxDt: 1}, nil},
		{"dimension mismatch", State{1, 2}, []float64{0, 1}, DefaultConfig(), ErrDimensionMismatch},
		{"empty grid", State{1}, nil, DefaultConfig(), ErrInvalidGrid},
		{"decreasing grid", State{1}, []float64{0, 2, 1}, DefaultConfig(), ErrInvalidGrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := solver.Solve(context.Background(), &decay{}, tt.x0, tt.times, tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSolverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := NewSolver(&euler{})
	result, err := solver.Solve(ctx, &decay{}, State{1.0}, Linspace(0, 1, 5), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.States) != 1 {
		t.Errorf("expected only the initial sample, got %d", len(result.States))
	}
}

func TestSolverDeadlineWithinSample(t *testing.T) {
	adaptiveCfg := DefaultConfig()
	adaptiveCfg.MaxDt = 1e-3

	tests := []struct {
		name       string
		integrator Integrator
		cfg        Config
	}{
		{"fixed step", &euler{}, DefaultConfig()},
		{"adaptive", &heunEuler{}, adaptiveCfg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			solver := NewSolver(tt.integrator)
			start := time.Now()
			_, err := solver.Solve(ctx, &decay{}, State{1.0}, []float64{0, 1e9}, tt.cfg)
			elapsed := time.Since(start)

			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected context.DeadlineExceeded, got %v", err)
			}
			if elapsed > 2*time.Second {
				t.Errorf("solve outlived its deadline by %v", elapsed)
			}
		})
	}
}

func TestSolverMetrics(t *testing.T) {
	solver := NewSolver(&euler{})

	metric := &testMetric{}
	solver.AddMetric(metric)

	result, err := solver.Solve(context.Background(), &decay{}, State{1.0}, Linspace(0, 1, 11), DefaultConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestRunTasks(t *testing.T) {
	boom := errors.New("boom")

	for _, parallel := range []bool{false, true} {
		results := make([]int, 3)
		tasks := make([]Task, 3)
		for i := range tasks {
			tasks[i] = func(ctx context.Context) error {
				results[i] = i + 1
				return nil
			}
		}
		if err := RunTasks(context.Background(), parallel, tasks...); err != nil {
			t.Fatalf("parallel=%v: unexpected error %v", parallel, err)
		}
		for i, v := range results {
			if v != i+1 {
				t.Errorf("parallel=%v: task %d did not run", parallel, i)
			}
		}

		err := RunTasks(context.Background(), parallel,
			func(ctx context.Context) error { return nil },
			func(ctx context.Context) error { return boom },
		)
		if !errors.Is(err, boom) {
			t.Errorf("parallel=%v: expected boom, got %v", parallel, err)
		}
	}
}
