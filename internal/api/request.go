package api

import (
	"bytes"
	"encoding/json"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

// temperature accepts a JSON number or a string such as "195°C".
type temperature float64

func (t *temperature) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := kinetics.ParseTemperature(s)
		if err != nil {
			return err
		}
		*t = temperature(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = temperature(v)
	return nil
}

type simulateRequest struct {
	Temperature           *temperature `json:"temperature"`
	SolidLoading          *float64     `json:"solid_loading"`
	CelluloseFraction     *float64     `json:"cellulose_fraction"`
	HemicelluloseFraction *float64     `json:"hemicellulose_fraction"`
	TimeFinal             *float64     `json:"time_final"`

	// Save stores the run when the server has a repository.
	Save bool `json:"save"`
}

func (req simulateRequest) apply(c kinetics.Conditions) kinetics.Conditions {
	if req.Temperature != nil {
		c.Temperature = float64(*req.Temperature)
	}
	if req.SolidLoading != nil {
		c.SolidLoading = *req.SolidLoading
	}
	if req.CelluloseFraction != nil {
		c.CelluloseFraction = *req.CelluloseFraction
	}
	if req.HemicelluloseFraction != nil {
		c.HemicelluloseFraction = *req.HemicelluloseFraction
	}
	if req.TimeFinal != nil {
		c.TimeFinal = *req.TimeFinal
	}
	return c
}
