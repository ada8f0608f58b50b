package integrators

import (
	"math"

	"github.com/san-kum/hydrosim/internal/dynamo"
)

// consecutive is the first-order chain A -> B -> C.
type consecutive struct {
	k1, k2 float64
}

func (c *consecutive) StateDim() int { return 3 }

func (c *consecutive) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{
		-c.k1 * x[0],
		c.k1*x[0] - c.k2*x[1],
		c.k2 * x[1],
	}
}

func (c *consecutive) exact(a0, t float64) dynamo.State {
	a := a0 * math.Exp(-c.k1*t)
	b := a0 * c.k1 / (c.k2 - c.k1) * (math.Exp(-c.k1*t) - math.Exp(-c.k2*t))
	return dynamo.State{a, b, a0 - a - b}
}

func maxAbsDiff(a, b dynamo.State) float64 {
	m := 0.0
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}
