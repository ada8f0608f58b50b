package kinetics

import "math"

// Conditions are the inputs of one pretreatment simulation.
type Conditions struct {
	// Temperature in °C; must be a calibration point.
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	// SolidLoading is the total initial solids concentration in g/L.
	SolidLoading float64 `json:"solid_loading" yaml:"solid_loading" toml:"solid_loading"`
	// Mass fractions of the solids, each in [0, 1].
	CelluloseFraction     float64 `json:"cellulose_fraction" yaml:"cellulose_fraction" toml:"cellulose_fraction"`
	HemicelluloseFraction float64 `json:"hemicellulose_fraction" yaml:"hemicellulose_fraction" toml:"hemicellulose_fraction"`
	// TimeFinal is the simulated horizon in minutes.
	TimeFinal float64 `json:"time_final" yaml:"time_final" toml:"time_final"`
}

// InitialLoading returns the starting parent concentration of the polymer in g/L.
func (c Conditions) InitialLoading(p Polymer) float64 {
	if p == Hemicellulose {
		return c.SolidLoading * c.HemicelluloseFraction
	}
	return c.SolidLoading * c.CelluloseFraction
}

// Validate checks the temperature first, then the physical ranges. With
// strict set, the two fractions must also sum to at most 1.
func (c Conditions) Validate(strict bool) error {
	if !IsCalibrated(c.Temperature) {
		return &InvalidTemperatureError{Temperature: c.Temperature, Allowed: CalibrationTemperatures()}
	}
	if bad(c.SolidLoading) || c.SolidLoading < 0 {
		return &ConditionError{Field: "solid_loading", Value: c.SolidLoading, Reason: "must be a non-negative concentration"}
	}
	if bad(c.CelluloseFraction) || c.CelluloseFraction < 0 || c.CelluloseFraction > 1 {
		return &ConditionError{Field: "cellulose_fraction", Value: c.CelluloseFraction, Reason: "must be within [0, 1]"}
	}
	if bad(c.HemicelluloseFraction) || c.HemicelluloseFraction < 0 || c.HemicelluloseFraction > 1 {
		return &ConditionError{Field: "hemicellulose_fraction", Value: c.HemicelluloseFraction, Reason: "must be within [0, 1]"}
	}
	if bad(c.TimeFinal) || c.TimeFinal <= 0 {
		return &ConditionError{Field: "time_final", Value: c.TimeFinal, Reason: "must be positive"}
	}
	if strict {
		if sum := c.CelluloseFraction + c.HemicelluloseFraction; sum > 1+1e-9 {
			return &ConditionError{Field: "cellulose_fraction+hemicellulose_fraction", Value: sum, Reason: "composition exceeds the solid mass"}
		}
	}
	return nil
}

func bad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
