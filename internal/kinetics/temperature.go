package kinetics

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTemperature accepts "195", "195°C", "195 °C" or "195C".
func ParseTemperature(s string) (float64, error) {
	v := strings.TrimSpace(s)
	for _, suffix := range []string{"°C", "ºC", "C", "c"} {
		if strings.HasSuffix(v, suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, suffix))
			break
		}
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("kinetics: parse temperature %q: %w", s, err)
	}
	return t, nil
}
