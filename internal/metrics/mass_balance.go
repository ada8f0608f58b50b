package metrics

import (
	"math"

	"github.com/san-kum/hydrosim/internal/dynamo"
)

// MassBalance tracks the largest relative drift of the summed pools from
// their first observed total. Reaction networks that only move mass between
// pools should stay near zero.
type MassBalance struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMassBalance() *MassBalance {
	return &MassBalance{name: "mass_balance_error"}
}

func (m *MassBalance) Name() string { return m.name }

func (m *MassBalance) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if m.samples == 0 {
		m.initial = total
	}
	m.samples++

	if m.initial != 0 {
		drift := math.Abs(total-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MassBalance) Value() float64 { return m.maxDrift }

func (m *MassBalance) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
