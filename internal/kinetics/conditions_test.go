package kinetics

import (
	"errors"
	"math"
	"testing"
)

func TestConditionsValidate(t *testing.T) {
	valid := Conditions{Temperature: 195, SolidLoading: 100, CelluloseFraction: 0.348, HemicelluloseFraction: 0.23, TimeFinal: 40}

	tests := []struct {
		name   string
		mutate func(*Conditions)
		strict bool
		want   error
		field  string
	}{
		{"valid", func(c *Conditions) {}, false, nil, ""},
		{"valid strict", func(c *Conditions) {}, true, nil, ""},
		{"zero loading", func(c *Conditions) { c.SolidLoading = 0 }, false, nil, ""},
		{"uncalibrated temperature", func(c *Conditions) { c.Temperature = 200 }, false, ErrInvalidTemperature, ""},
		{"negative loading", func(c *Conditions) { c.SolidLoading = -1 }, false, ErrInvalidConditions, "solid_loading"},
		{"NaN loading", func(c *Conditions) { c.SolidLoading = math.NaN() }, false, ErrInvalidConditions, "solid_loading"},
		{"cellulose above one", func(c *Conditions) { c.CelluloseFraction = 1.2 }, false, ErrInvalidConditions, "cellulose_fraction"},
		{"negative hemicellulose", func(c *Conditions) { c.HemicelluloseFraction = -0.1 }, false, ErrInvalidConditions, "hemicellulose_fraction"},
		{"zero horizon", func(c *Conditions) { c.TimeFinal = 0 }, false, ErrInvalidConditions, "time_final"},
		{"overfull composition permissive", func(c *Conditions) { c.CelluloseFraction, c.HemicelluloseFraction = 0.8, 0.4 }, false, nil, ""},
		{"overfull composition strict", func(c *Conditions) { c.CelluloseFraction, c.HemicelluloseFraction = 0.8, 0.4 }, true, ErrInvalidConditions, "cellulose_fraction+hemicellulose_fraction"},
		{"temperature checked first", func(c *Conditions) { c.Temperature, c.TimeFinal = 170, -1 }, false, ErrInvalidTemperature, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate(tt.strict)

			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.field != "" {
				var condErr *ConditionError
				if !errors.As(err, &condErr) || condErr.Field != tt.field {
					t.Errorf("expected field %q, got %v", tt.field, err)
				}
			}
		})
	}
}

func TestInitialLoading(t *testing.T) {
	c := Conditions{SolidLoading: 200, CelluloseFraction: 0.4, HemicelluloseFraction: 0.25}
	if got := c.InitialLoading(Cellulose); math.Abs(got-80) > 1e-12 {
		t.Errorf("cellulose loading = %g", got)
	}
	if got := c.InitialLoading(Hemicellulose); math.Abs(got-50) > 1e-12 {
		t.Errorf("hemicellulose loading = %g", got)
	}
}

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"195", 195, false},
		{"195°C", 195, false},
		{" 210 °C ", 210, false},
		{"180C", 180, false},
		{"180.5", 180.5, false},
		{"hot", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTemperature(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTemperature(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTemperature(%q) = %g, %v; want %g", tt.in, got, err, tt.want)
		}
	}
}
