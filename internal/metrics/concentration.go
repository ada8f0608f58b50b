package metrics

import (
	"math"

	"github.com/san-kum/hydrosim/internal/dynamo"
)

// MinConcentration records the smallest pool value seen across all samples.
type MinConcentration struct {
	name    string
	min     float64
	samples int
}

func NewMinConcentration() *MinConcentration {
	return &MinConcentration{name: "min_concentration", min: math.Inf(1)}
}

func (m *MinConcentration) Name() string { return m.name }

func (m *MinConcentration) Observe(x dynamo.State, t float64) {
	m.samples++
	m.min = math.Min(m.min, x.Min())
}

func (m *MinConcentration) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinConcentration) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}

// Depletion reports the fraction of a pool still present at the last
// observation relative to the first.
type Depletion struct {
	name    string
	index   int
	first   float64
	last    float64
	samples int
}

func NewDepletion(index int) *Depletion {
	return &Depletion{name: "parent_remaining", index: index}
}

func (d *Depletion) Name() string { return d.name }

func (d *Depletion) Observe(x dynamo.State, t float64) {
	if d.index >= len(x) {
		return
	}
	if d.samples == 0 {
		d.first = x[d.index]
	}
	d.last = x[d.index]
	d.samples++
}

// Value is 1 for an empty starting pool, matching "nothing was consumed".
func (d *Depletion) Value() float64 {
	if d.samples == 0 || d.first == 0 {
		return 1
	}
	return d.last / d.first
}

func (d *Depletion) Reset() {
	d.first = 0
	d.last = 0
	d.samples = 0
}
