package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

var base = kinetics.Conditions{
	Temperature:           195,
	SolidLoading:          100,
	CelluloseFraction:     0.348,
	HemicelluloseFraction: 0.230,
	TimeFinal:             40,
}

func TestApply(t *testing.T) {
	c, err := Apply(base, map[string]float64{ParamTemperature: 210, ParamTimeFinal: 10})
	if err != nil {
		t.Fatal(err)
	}
	if c.Temperature != 210 || c.TimeFinal != 10 || c.SolidLoading != 100 {
		t.Errorf("unexpected conditions %+v", c)
	}

	if _, err := Apply(base, map[string]float64{"pressure": 1}); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestSearchMaximizeDegradation(t *testing.T) {
	g := NewGridSearch(
		[]string{ParamTemperature, ParamTimeFinal},
		[][]float64{{180, 195, 200, 210}, {20, 40}},
	)

	out, err := g.Search(context.Background(), kinetics.NewEngine(kinetics.WithSamples(20)), base, "hemicellulose_degraded_percent", Maximize)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(out.Points) != 8 {
		t.Errorf("expected 8 points, got %d", len(out.Points))
	}
	if out.Failed != 2 {
		t.Errorf("expected the two 200 °C points to fail, got %d failures", out.Failed)
	}
	for _, p := range out.Points {
		if p.Params[ParamTemperature] == 200 && !errors.Is(p.Err, kinetics.ErrInvalidTemperature) {
			t.Errorf("expected temperature error at 200 °C, got %v", p.Err)
		}
	}
	if out.Best[ParamTemperature] != 210 || out.Best[ParamTimeFinal] != 40 {
		t.Errorf("expected best at 210 °C / 40 min, got %v", out.Best)
	}
}

func TestSearchMinimize(t *testing.T) {
	g := NewGridSearch([]string{ParamTemperature}, [][]float64{{180, 195, 210}})

	out, err := g.Search(context.Background(), kinetics.NewEngine(kinetics.WithSamples(10)), base, "cellulose_degraded_percent", Minimize)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if out.Best[ParamTemperature] != 180 {
		t.Errorf("expected least degradation at 180 °C, got %v", out.Best)
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g := NewGridSearch([]string{ParamTemperature}, [][]float64{{195}})
	_, err := g.Search(context.Background(), kinetics.NewEngine(), base, "yield", Maximize)
	if err == nil {
		t.Error("expected error when no point yields the metric")
	}
}

func TestSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{ParamTemperature, ParamTimeFinal}, [][]float64{{195}})
	if _, err := g.Search(context.Background(), kinetics.NewEngine(), base, "cellulose_degraded_percent", Maximize); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}

func TestSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGridSearch([]string{ParamTemperature}, [][]float64{{195}})
	_, err := g.Search(ctx, kinetics.NewEngine(), base, "cellulose_degraded_percent", Maximize)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSearchWorkersMatchSequential(t *testing.T) {
	params := []string{ParamTemperature, ParamTimeFinal, ParamSolidLoading}
	ranges := [][]float64{{180, 195, 210}, {10, 20, 30, 40}, {50, 100}}
	engine := kinetics.NewEngine(kinetics.WithSamples(20))

	seq, err := NewGridSearch(params, ranges).Search(context.Background(), engine, base, "hemicellulose.xos_peak", Maximize)
	if err != nil {
		t.Fatal(err)
	}

	g := NewGridSearch(params, ranges)
	g.Workers = 4
	par, err := g.Search(context.Background(), engine, base, "hemicellulose.xos_peak", Maximize)
	if err != nil {
		t.Fatal(err)
	}

	if len(par.Points) != 24 || len(seq.Points) != 24 {
		t.Fatalf("expected 24 points, got %d and %d", len(seq.Points), len(par.Points))
	}
	for i := range seq.Points {
		if seq.Points[i].Value != par.Points[i].Value {
			t.Errorf("point %d differs: %v vs %v", i, seq.Points[i].Value, par.Points[i].Value)
		}
	}
	if seq.BestValue != par.BestValue || par.Best[ParamSolidLoading] != 100 {
		t.Errorf("best differs: %v at %v vs %v at %v", seq.BestValue, seq.Best, par.BestValue, par.Best)
	}
}
