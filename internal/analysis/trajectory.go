package analysis

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySeries = errors.New("analysis: empty series")
	ErrNoCrossing  = errors.New("analysis: series never reaches the level")
)

func checkSeries(times, values []float64) error {
	if len(values) == 0 {
		return ErrEmptySeries
	}
	if len(times) != len(values) {
		return fmt.Errorf("analysis: %d times but %d values", len(times), len(values))
	}
	return nil
}

// Peak returns the largest value of the series and the first time it is
// reached.
func Peak(times, values []float64) (value, at float64, err error) {
	if err := checkSeries(times, values); err != nil {
		return 0, 0, err
	}
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return values[best], times[best], nil
}

// CrossingTime returns the first time the series drops to level or below,
// linearly interpolated between the bracketing samples.
func CrossingTime(times, values []float64, level float64) (float64, error) {
	if err := checkSeries(times, values); err != nil {
		return 0, err
	}
	if values[0] <= level {
		return times[0], nil
	}
	for i := 1; i < len(values); i++ {
		if values[i] > level {
			continue
		}
		prev, cur := values[i-1], values[i]
		frac := (prev - level) / (prev - cur)
		return times[i-1] + frac*(times[i]-times[i-1]), nil
	}
	return math.NaN(), ErrNoCrossing
}

// HalfLife is the crossing time at half of the first sample.
func HalfLife(times, values []float64) (float64, error) {
	if err := checkSeries(times, values); err != nil {
		return 0, err
	}
	if values[0] <= 0 {
		return math.NaN(), ErrNoCrossing
	}
	return CrossingTime(times, values, values[0]/2)
}
