package integrators

import "github.com/san-kum/hydrosim/internal/dynamo"

// Euler is the explicit first-order method. It is kept as a baseline for
// integrator comparisons; its error on the degradation networks is O(dt).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	return x.Add(sys.Derive(x, t).Scale(dt))
}
