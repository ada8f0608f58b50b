package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/hydrosim/internal/dynamo"
	"github.com/san-kum/hydrosim/internal/integrators"
	"github.com/san-kum/hydrosim/internal/kinetics"
	"github.com/san-kum/hydrosim/internal/metrics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	metrics     map[string]func() dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		metrics:     make(map[string]func() dynamo.Metric),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.metrics["mass_balance_error"] = func() dynamo.Metric { return metrics.NewMassBalance() }
	r.metrics["min_concentration"] = func() dynamo.Metric { return metrics.NewMinConcentration() }
	r.metrics["parent_remaining"] = func() dynamo.Metric { return metrics.NewDepletion(kinetics.Parent) }

	return r
}

// IntegratorFactory returns a constructor so that each path gets its own
// integrator instance.
func (r *Registry) IntegratorFactory(name string) (func() dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, r.ListIntegrators())
	}
	return fn, nil
}

func (r *Registry) MetricFactory(name string) (func() dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn, nil
}

// IsAdaptive reports whether the named integrator controls its own step.
func (r *Registry) IsAdaptive(name string) bool {
	fn, ok := r.integrators[name]
	if !ok {
		return false
	}
	_, adaptive := fn().(dynamo.AdaptiveIntegrator)
	return adaptive
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// DefaultMetrics are attached to every run.
func (r *Registry) DefaultMetrics() []func() dynamo.Metric {
	out := make([]func() dynamo.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
