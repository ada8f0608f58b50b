package kinetics

import (
	"fmt"
	"slices"
)

// Polymer selects one of the two degradation networks.
type Polymer int

const (
	Cellulose Polymer = iota
	Hemicellulose
)

// Polymers lists both networks in result order.
var Polymers = []Polymer{Cellulose, Hemicellulose}

// Pool indices within a reaction state.
const (
	Parent = iota
	Oligomer
	Monomer
	Furan
	Degraded

	NumPools
)

func (p Polymer) String() string {
	switch p {
	case Cellulose:
		return "cellulose"
	case Hemicellulose:
		return "hemicellulose"
	default:
		return fmt.Sprintf("polymer(%d)", int(p))
	}
}

func (p Polymer) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Polymer) UnmarshalText(b []byte) error {
	switch string(b) {
	case "cellulose":
		*p = Cellulose
	case "hemicellulose":
		*p = Hemicellulose
	default:
		return fmt.Errorf("kinetics: unknown polymer %q", b)
	}
	return nil
}

// Pools names the five state variables of the polymer's network.
func (p Polymer) Pools() []string {
	if p == Hemicellulose {
		return []string{"hemicellulose", "xos", "monomers", "furfural", "degraded"}
	}
	return []string{"cellulose", "gos", "monomers", "hmf", "degraded"}
}

// RateConstants are the first-order rate constants k1..k6 in 1/min.
type RateConstants struct {
	K1 float64 `json:"k1" yaml:"k1"`
	K2 float64 `json:"k2" yaml:"k2"`
	K3 float64 `json:"k3" yaml:"k3"`
	K4 float64 `json:"k4" yaml:"k4"`
	K5 float64 `json:"k5" yaml:"k5"`
	K6 float64 `json:"k6" yaml:"k6"`
}

// Array returns k1..k6 in order.
func (k RateConstants) Array() [6]float64 {
	return [6]float64{k.K1, k.K2, k.K3, k.K4, k.K5, k.K6}
}

var calibrationTemperatures = []float64{180, 195, 210}

// Experimentally fitted rate constants, 1/min.
var rateTables = map[Polymer]map[float64]RateConstants{
	Cellulose: {
		180: {K1: 0.0051, K2: 0.0002, K3: 0.0550, K4: 0.0023, K5: 0.0531, K6: 0.0007},
		195: {K1: 0.0060, K2: 0.0084, K3: 0.2400, K4: 0.0070, K5: 0.1573, K6: 0.0010},
		210: {K1: 0.0294, K2: 0.0080, K3: 0.3100, K4: 0.0460, K5: 0.3772, K6: 0.0588},
	},
	Hemicellulose: {
		180: {K1: 0.0037, K2: 0.0353, K3: 0.0073, K4: 0.0097, K5: 0.0139, K6: 0.0043},
		195: {K1: 0.0041, K2: 0.0988, K3: 0.0662, K4: 0.0316, K5: 0.0655, K6: 0.0047},
		210: {K1: 0.0105, K2: 0.2143, K3: 0.2739, K4: 0.0730, K5: 0.1546, K6: 0.0317},
	},
}

// CalibrationTemperatures returns the temperatures (°C) that have rate
// constants, in ascending order.
func CalibrationTemperatures() []float64 {
	return slices.Clone(calibrationTemperatures)
}

// IsCalibrated reports whether temperature is one of the calibration points.
func IsCalibrated(temperature float64) bool {
	return slices.Contains(calibrationTemperatures, temperature)
}

// Lookup returns the rate constants of the polymer at a calibration
// temperature. Temperatures between calibration points are rejected.
func Lookup(p Polymer, temperature float64) (RateConstants, error) {
	table, ok := rateTables[p]
	if !ok {
		return RateConstants{}, fmt.Errorf("kinetics: no rate table for %s", p)
	}
	k, ok := table[temperature]
	if !ok {
		return RateConstants{}, &InvalidTemperatureError{
			Temperature: temperature,
			Allowed:     CalibrationTemperatures(),
		}
	}
	return k, nil
}

// Table returns a copy of the polymer's rate table.
func Table(p Polymer) map[float64]RateConstants {
	out := make(map[float64]RateConstants, len(rateTables[p]))
	for t, k := range rateTables[p] {
		out[t] = k
	}
	return out
}
