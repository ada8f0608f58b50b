package kinetics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTemperature matches any *InvalidTemperatureError.
	ErrInvalidTemperature = errors.New("kinetics: temperature is not a calibration point")

	// ErrInvalidConditions matches any *ConditionError.
	ErrInvalidConditions = errors.New("kinetics: invalid reaction conditions")

	// ErrDegenerateRates is returned by the closed-form solution when two
	// pools share a decay rate.
	ErrDegenerateRates = errors.New("kinetics: coincident decay rates have no closed-form solution")
)

// InvalidTemperatureError reports a temperature outside the calibrated set.
type InvalidTemperatureError struct {
	Temperature float64
	Allowed     []float64
}

func (e *InvalidTemperatureError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, t := range e.Allowed {
		allowed[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return fmt.Sprintf("kinetics: temperature %g°C is not a calibration point (allowed: %s °C)",
		e.Temperature, strings.Join(allowed, ", "))
}

func (e *InvalidTemperatureError) Is(target error) bool {
	return target == ErrInvalidTemperature
}

// ConditionError reports a reaction condition outside its physical range.
type ConditionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("kinetics: %s = %g: %s", e.Field, e.Value, e.Reason)
}

func (e *ConditionError) Is(target error) bool {
	return target == ErrInvalidConditions
}
