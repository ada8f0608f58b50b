package analysis

import "math"

const (
	// severityReference is the reference temperature in °C.
	severityReference = 100.0
	// severityOmega is the empirical activation parameter in °C.
	severityOmega = 14.75
)

// SeverityFactor returns log10(R0) with R0 = t * exp((T - 100) / 14.75)
// for an isothermal treatment of minutes at temperature °C. It is -Inf when
// minutes is zero.
func SeverityFactor(temperature, minutes float64) float64 {
	return math.Log10(minutes * math.Exp((temperature-severityReference)/severityOmega))
}
