package kinetics_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hydrosim/internal/dynamo"
	"github.com/san-kum/hydrosim/internal/integrators"
	"github.com/san-kum/hydrosim/internal/kinetics"
)

const eps = 1e-8

var bagasse = kinetics.Conditions{
	Temperature:           195,
	SolidLoading:          100,
	CelluloseFraction:     0.348,
	HemicelluloseFraction: 0.230,
	TimeFinal:             40,
}

func parentDecay(p kinetics.Polymer, temperature, t float64) float64 {
	k, err := kinetics.Lookup(p, temperature)
	Expect(err).NotTo(HaveOccurred())
	return (1 - math.Exp(-(k.K1+k.K2)*t)) * 100
}

var _ = Describe("Simulate", func() {
	var result *kinetics.Result

	BeforeEach(func() {
		var err error
		result, err = kinetics.Simulate(bagasse)
		Expect(err).NotTo(HaveOccurred())
	})

	It("samples 200 evenly spaced times from 0 to the horizon", func() {
		Expect(result.Time).To(HaveLen(kinetics.DefaultSamples))
		Expect(result.Time[0]).To(Equal(0.0))
		Expect(result.Time[len(result.Time)-1]).To(BeNumerically("~", bagasse.TimeFinal, 1e-12))
		for i := 1; i < len(result.Time); i++ {
			Expect(result.Time[i]).To(BeNumerically(">", result.Time[i-1]))
		}
		Expect(result.Cellulose).To(HaveLen(len(result.Time)))
		Expect(result.Hemicellulose).To(HaveLen(len(result.Time)))
	})

	It("loads the parent pools from solids and fractions", func() {
		Expect(result.InitialCellulose).To(BeNumerically("~", 34.8, 1e-12))
		Expect(result.InitialHemicellulose).To(BeNumerically("~", 23.0, 1e-12))
		Expect(result.Cellulose[0]).To(Equal(result.InitialCellulose))
		Expect(result.FinalCellulose).To(Equal(result.Cellulose[len(result.Cellulose)-1]))
	})

	It("matches the closed-form parent decay", func() {
		want := parentDecay(kinetics.Cellulose, 195, 40)
		Expect(result.CelluloseDegradedPercent).To(BeNumerically("~", want, 1e-3*want))

		want = parentDecay(kinetics.Hemicellulose, 195, 40)
		Expect(result.HemicelluloseDegradedPercent).To(BeNumerically("~", want, 1e-3*want))

		for _, pct := range []float64{result.CelluloseDegradedPercent, result.HemicelluloseDegradedPercent} {
			Expect(pct).To(BeNumerically(">=", 0))
			Expect(pct).To(BeNumerically("<=", 100))
		}
	})

	It("matches the closed-form solution for every pool", func() {
		for _, polymer := range kinetics.Polymers {
			path := result.Path(polymer)
			net := kinetics.NewNetwork(path.Rates)
			for i, t := range result.Time {
				want, err := net.Exact(path.Initial, t)
				Expect(err).NotTo(HaveOccurred())
				for j := range want {
					Expect(path.States[i][j]).To(BeNumerically("~", want[j], 1e-4+1e-4*math.Abs(want[j])),
						"%s pool %s at t=%g", polymer, path.Pools[j], t)
				}
			}
		}
	})

	It("conserves mass", func() {
		for _, polymer := range kinetics.Polymers {
			path := result.Path(polymer)
			for _, s := range path.States {
				Expect(s.Sum()).To(BeNumerically("~", path.Initial, 1e-6*path.Initial))
			}
			Expect(path.Metrics).To(HaveKey("mass_balance_error"))
			Expect(path.Metrics["mass_balance_error"]).To(BeNumerically("<", 1e-6))
			Expect(path.Metrics["parent_remaining"]).To(BeNumerically("~", 1-path.DegradedPercent/100, 1e-12))
		}
	})

	It("labels plots with temperature and loading", func() {
		Expect(result.PlotTitle()).To(Equal("Hydrothermal degradation at 195°C"))
		Expect(result.PlotSubtitle()).To(Equal("Solid loading: 100 g/L"))
	})

	It("resolves named metrics", func() {
		v, ok := result.Metric("cellulose_degraded_percent")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(result.CelluloseDegradedPercent))

		v, ok = result.Metric("hemicellulose.xos")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(result.HemicellulosePath.FinalState()[kinetics.Oligomer]))

		_, ok = result.Metric("cellulose.mass_balance_error")
		Expect(ok).To(BeTrue())

		_, ok = result.Metric("lignin.monomers")
		Expect(ok).To(BeFalse())
		_, ok = result.Metric("nonsense")
		Expect(ok).To(BeFalse())
	})

	It("derives trajectory features", func() {
		k, err := kinetics.Lookup(kinetics.Hemicellulose, 195)
		Expect(err).NotTo(HaveOccurred())

		halfLife, ok := result.Metric("hemicellulose.half_life")
		Expect(ok).To(BeTrue())
		Expect(halfLife).To(BeNumerically("~", math.Ln2/(k.K1+k.K2), 1e-2))

		_, ok = result.Metric("cellulose.half_life")
		Expect(ok).To(BeFalse(), "cellulose is less than half gone after 40 min at 195°C")

		peak, ok := result.Metric("hemicellulose.xos_peak")
		Expect(ok).To(BeTrue())
		final, _ := result.Metric("hemicellulose.xos")
		Expect(peak).To(BeNumerically(">", final))

		at, ok := result.Metric("hemicellulose.xos_peak_time")
		Expect(ok).To(BeTrue())
		Expect(at).To(BeNumerically(">", 0))
		Expect(at).To(BeNumerically("<", 40))

		severity, ok := result.Metric("severity")
		Expect(ok).To(BeTrue())
		Expect(severity).To(BeNumerically("~", math.Log10(40)+95/14.75/math.Ln10, 1e-12))
	})

	It("echoes the conditions", func() {
		Expect(result.Temperature).To(Equal(195.0))
		Expect(result.SolidLoading).To(Equal(100.0))
		Expect(result.TimeFinal).To(Equal(40.0))

		c := result.Conditions()
		Expect(c.CelluloseFraction).To(BeNumerically("~", 0.348, 1e-12))
		Expect(c.HemicelluloseFraction).To(BeNumerically("~", 0.230, 1e-12))
	})
})

var _ = Describe("Trajectory bounds", func() {
	DescribeTable("pools stay non-negative and parents never grow",
		func(temperature, horizon float64) {
			c := bagasse
			c.Temperature = temperature
			c.TimeFinal = horizon
			result, err := kinetics.Simulate(c)
			Expect(err).NotTo(HaveOccurred())

			for _, polymer := range kinetics.Polymers {
				path := result.Path(polymer)
				for i, s := range path.States {
					Expect(s.Min()).To(BeNumerically(">=", -eps), "%s at t=%g", polymer, result.Time[i])
				}
			}
			for _, series := range [][]float64{result.Cellulose, result.Hemicellulose} {
				for i := 1; i < len(series); i++ {
					Expect(series[i]).To(BeNumerically("<=", series[i-1]+eps))
				}
			}
		},
		Entry("180°C over 40 min", 180.0, 40.0),
		Entry("195°C over 40 min", 195.0, 40.0),
		Entry("210°C over 40 min", 210.0, 40.0),
		Entry("180°C over 20000 min", 180.0, 20000.0),
		Entry("195°C over 20000 min", 195.0, 20000.0),
		Entry("210°C over 20000 min", 210.0, 20000.0),
	)
})

var _ = Describe("Temperature gating", func() {
	DescribeTable("calibrated temperatures succeed",
		func(temperature float64) {
			c := bagasse
			c.Temperature = temperature
			_, err := kinetics.Simulate(c)
			Expect(err).NotTo(HaveOccurred())
		},
		Entry("180 °C", 180.0),
		Entry("195 °C", 195.0),
		Entry("210 °C", 210.0),
	)

	DescribeTable("other temperatures are rejected without interpolation",
		func(temperature float64) {
			c := bagasse
			c.Temperature = temperature
			_, err := kinetics.Simulate(c)
			Expect(err).To(MatchError(kinetics.ErrInvalidTemperature))

			var tempErr *kinetics.InvalidTemperatureError
			Expect(errors.As(err, &tempErr)).To(BeTrue())
			Expect(tempErr.Temperature).To(Equal(temperature))
			Expect(tempErr.Allowed).To(Equal([]float64{180, 195, 210}))
			Expect(err.Error()).To(ContainSubstring("180, 195, 210"))
		},
		Entry("between points", 200.0),
		Entry("below range", 150.0),
		Entry("above range", 230.0),
	)
})

var _ = Describe("Degradation properties", func() {
	It("treats an empty polymer as 0% degraded", func() {
		for _, temperature := range kinetics.CalibrationTemperatures() {
			c := bagasse
			c.Temperature = temperature
			c.CelluloseFraction = 0
			result, err := kinetics.Simulate(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.InitialCellulose).To(Equal(0.0))
			Expect(result.FinalCellulose).To(Equal(0.0))
			Expect(result.CelluloseDegradedPercent).To(Equal(0.0))
			Expect(result.HemicelluloseDegradedPercent).To(BeNumerically(">", 0))
		}
	})

	It("degrades at least as much over a longer horizon", func() {
		for _, temperature := range kinetics.CalibrationTemperatures() {
			short := bagasse
			short.Temperature = temperature
			long := short
			long.TimeFinal = 80

			a, err := kinetics.Simulate(short)
			Expect(err).NotTo(HaveOccurred())
			b, err := kinetics.Simulate(long)
			Expect(err).NotTo(HaveOccurred())

			Expect(b.CelluloseDegradedPercent).To(BeNumerically(">=", a.CelluloseDegradedPercent))
			Expect(b.HemicelluloseDegradedPercent).To(BeNumerically(">=", a.HemicelluloseDegradedPercent))
		}
	})

	It("keeps percentages invariant under solids scaling", func() {
		doubled := bagasse
		doubled.SolidLoading *= 2

		a, err := kinetics.Simulate(bagasse)
		Expect(err).NotTo(HaveOccurred())
		b, err := kinetics.Simulate(doubled)
		Expect(err).NotTo(HaveOccurred())

		Expect(b.InitialCellulose).To(BeNumerically("~", 2*a.InitialCellulose, 1e-12))
		Expect(b.InitialHemicellulose).To(BeNumerically("~", 2*a.InitialHemicellulose, 1e-12))
		Expect(b.CelluloseDegradedPercent).To(BeNumerically("~", a.CelluloseDegradedPercent, 1e-4))
		Expect(b.HemicelluloseDegradedPercent).To(BeNumerically("~", a.HemicelluloseDegradedPercent, 1e-4))
	})
})

var _ = Describe("Engine", func() {
	ctx := context.Background()

	It("gives identical numbers sequentially and concurrently", func() {
		seq, err := kinetics.NewEngine(kinetics.WithParallel(false)).Simulate(ctx, bagasse)
		Expect(err).NotTo(HaveOccurred())
		par, err := kinetics.NewEngine(kinetics.WithParallel(true)).Simulate(ctx, bagasse)
		Expect(err).NotTo(HaveOccurred())

		Expect(par.Cellulose).To(Equal(seq.Cellulose))
		Expect(par.Hemicellulose).To(Equal(seq.Hemicellulose))
	})

	It("honours the sample count", func() {
		result, err := kinetics.NewEngine(kinetics.WithSamples(11)).Simulate(ctx, bagasse)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Time).To(HaveLen(11))
		Expect(result.Time[10]).To(Equal(40.0))
	})

	It("agrees with a fixed-step RK4 run", func() {
		engine := kinetics.NewEngine(
			kinetics.WithIntegrator(func() dynamo.Integrator { return integrators.NewRK4() }),
			kinetics.WithStep(0.05),
		)
		rk4, err := engine.Simulate(ctx, bagasse)
		Expect(err).NotTo(HaveOccurred())

		ref, err := kinetics.Simulate(bagasse)
		Expect(err).NotTo(HaveOccurred())
		Expect(rk4.CelluloseDegradedPercent).To(BeNumerically("~", ref.CelluloseDegradedPercent, 1e-4))
		Expect(rk4.HemicelluloseDegradedPercent).To(BeNumerically("~", ref.HemicelluloseDegradedPercent, 1e-4))
	})

	It("rejects impossible compositions only in strict mode", func() {
		c := bagasse
		c.CelluloseFraction = 0.7
		c.HemicelluloseFraction = 0.5

		_, err := kinetics.NewEngine().Simulate(ctx, c)
		Expect(err).NotTo(HaveOccurred())

		_, err = kinetics.NewEngine(kinetics.WithStrictComposition(true)).Simulate(ctx, c)
		Expect(err).To(MatchError(kinetics.ErrInvalidConditions))
	})

	It("stops when the context is canceled", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := kinetics.NewEngine().Simulate(canceled, bagasse)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("meets a deadline shorter than one sample interval", func() {
		c := bagasse
		c.Temperature = 210
		c.TimeFinal = 2e8

		deadline, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := kinetics.NewEngine().Simulate(deadline, c)
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})
})
