package kinetics

import (
	"math"

	"github.com/san-kum/hydrosim/internal/dynamo"
)

// Network is the five-pool degradation ODE system of one polymer.
type Network struct {
	rates RateConstants
}

func NewNetwork(rates RateConstants) *Network {
	return &Network{rates: rates}
}

func (n *Network) StateDim() int { return NumPools }

func (n *Network) Derive(x dynamo.State, t float64) dynamo.State {
	k := n.rates
	p, o, m, f := x[Parent], x[Oligomer], x[Monomer], x[Furan]

	return dynamo.State{
		-(k.K1 + k.K2) * p,
		k.K2*p - k.K3*o,
		k.K1*p + k.K3*o - (k.K4+k.K5)*m,
		k.K4*m - k.K6*f,
		k.K5*m + k.K6*f,
	}
}

// InitialState puts the whole loading in the parent pool.
func InitialState(parent float64) dynamo.State {
	x := make(dynamo.State, NumPools)
	x[Parent] = parent
	return x
}

// expTerm is coef * exp(-rate * t).
type expTerm struct {
	coef, rate float64
}

type expSum []expTerm

func (s expSum) at(t float64) float64 {
	v := 0.0
	for _, term := range s {
		v += term.coef * math.Exp(-term.rate*t)
	}
	return v
}

// feed solves y' = gain*s(t) - mu*y with y(0) = 0.
func (s expSum) feed(gain, mu float64) (expSum, error) {
	out := make(expSum, 0, 2*len(s))
	for _, term := range s {
		alpha := gain * term.coef
		if alpha == 0 {
			continue
		}
		gap := mu - term.rate
		if math.Abs(gap) <= 1e-12*math.Max(math.Abs(mu), math.Abs(term.rate)) {
			return nil, ErrDegenerateRates
		}
		out = append(out,
			expTerm{coef: alpha / gap, rate: term.rate},
			expTerm{coef: -alpha / gap, rate: mu},
		)
	}
	return out, nil
}

// Exact evaluates the closed-form solution at time t for an initial parent
// concentration parent0 and empty downstream pools. The degraded pool is
// obtained from the mass balance.
func (n *Network) Exact(parent0, t float64) (dynamo.State, error) {
	k := n.rates
	x := make(dynamo.State, NumPools)
	if parent0 == 0 {
		return x, nil
	}

	parent := expSum{{coef: parent0, rate: k.K1 + k.K2}}

	oligomer, err := parent.feed(k.K2, k.K3)
	if err != nil {
		return nil, err
	}
	fromParent, err := parent.feed(k.K1, k.K4+k.K5)
	if err != nil {
		return nil, err
	}
	fromOligomer, err := oligomer.feed(k.K3, k.K4+k.K5)
	if err != nil {
		return nil, err
	}
	monomer := append(fromParent, fromOligomer...)
	furan, err := monomer.feed(k.K4, k.K6)
	if err != nil {
		return nil, err
	}

	x[Parent] = parent.at(t)
	x[Oligomer] = oligomer.at(t)
	x[Monomer] = monomer.at(t)
	x[Furan] = furan.at(t)
	x[Degraded] = parent0 - x[Parent] - x[Oligomer] - x[Monomer] - x[Furan]
	return x, nil
}
