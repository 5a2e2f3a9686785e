package surrogate_test

import (
	"context"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/fit"
	"github.com/san-kum/nrsur/internal/harmonics"
	"github.com/san-kum/nrsur/internal/surrogate"
	"github.com/san-kum/nrsur/internal/synthetic"
)

func ptr(v float64) *float64 { return &v }

func peakTime(times []float64, h []complex128) float64 {
	peak := 0
	for i := range h {
		if cmplx.Abs(h[i]) > cmplx.Abs(h[peak]) {
			peak = i
		}
	}
	return times[peak]
}

var _ = Describe("Model", func() {
	var model *surrogate.Model

	aligned := dynamo.Params{
		MassRatio: 1.2,
		ChiA:      [3]float64{0, 0, 0.3},
		ChiB:      [3]float64{0, 0, -0.1},
	}
	precessing := dynamo.Params{
		MassRatio: 1.5,
		ChiA:      [3]float64{0.3, 0.2, 0.4},
		ChiB:      [3]float64{-0.2, 0.1, 0.3},
	}

	BeforeEach(func() {
		src, err := synthetic.Build(synthetic.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		model, err = surrogate.Load(context.Background(), src)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Load", func() {
		It("discovers the model ellMax and both grids", func() {
			Expect(model.EllMax()).To(Equal(4))
			Expect(model.CoorbitalTimes()).To(HaveLen(len(synthetic.CoorbitalGrid())))
			Expect(model.DynamicsTimes()).To(HaveLen(len(synthetic.DynamicsGrid()) - 3))
		})
	})

	Describe("Evaluate", func() {
		It("peaks near t=0 on the coorbital grid for an aligned binary", func() {
			w, err := model.Evaluate(surrogate.Request{Params: aligned, EllMax: 2})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Times).To(Equal(model.CoorbitalTimes()))
			Expect(w.Modes).To(HaveLen(5))
			h22 := w.Modes[surrogate.Mode{Ell: 2, M: 2}]
			Expect(h22).To(HaveLen(len(w.Times)))
			Expect(peakTime(w.Times, h22)).To(BeNumerically("~", 0, 2))
		})

		It("returns conjugate (2,2) and (2,-2) modes for equal mass and zero spin", func() {
			w, err := model.Evaluate(surrogate.Request{Params: dynamo.Params{MassRatio: 1}, EllMax: 2})
			Expect(err).NotTo(HaveOccurred())

			pos := w.Modes[surrogate.Mode{Ell: 2, M: 2}]
			neg := w.Modes[surrogate.Mode{Ell: 2, M: -2}]
			for i := range pos {
				Expect(cmplx.Abs(pos[i] - cmplx.Conj(neg[i]))).To(BeNumerically("<", 1e-10))
			}
		})

		It("defaults ellMax to the model maximum up to 4", func() {
			w, err := model.Evaluate(surrogate.Request{Params: aligned})
			Expect(err).NotTo(HaveOccurred())
			Expect(w.EllMax).To(Equal(4))
			Expect(w.Modes).To(HaveLen(21))
			Expect(w.Stacked()).To(HaveLen(21))
		})

		It("resamples onto a uniform grid", func() {
			w, err := model.Evaluate(surrogate.Request{Params: aligned, EllMax: 2, Dt: 1})
			Expect(err).NotTo(HaveOccurred())

			tc := model.CoorbitalTimes()
			n := int(math.Ceil(tc[len(tc)-1] - tc[0]))
			Expect(w.Times).To(HaveLen(n))
			Expect(w.Times[0]).To(Equal(tc[0]))
			Expect(w.Times[1] - w.Times[0]).To(BeNumerically("~", 1, 1e-12))
			Expect(w.Modes[surrogate.Mode{Ell: 2, M: 2}]).To(HaveLen(n))
		})

		It("agrees with the native grid at shared output times", func() {
			native, err := model.Evaluate(surrogate.Request{Params: precessing, EllMax: 2})
			Expect(err).NotTo(HaveOccurred())
			times := []float64{native.Times[10], native.Times[200], native.Times[400]}
			w, err := model.Evaluate(surrogate.Request{Params: precessing, EllMax: 2, Times: times})
			Expect(err).NotTo(HaveOccurred())

			h := native.Modes[surrogate.Mode{Ell: 2, M: 1}]
			got := w.Modes[surrogate.Mode{Ell: 2, M: 1}]
			for k, i := range []int{10, 200, 400} {
				Expect(cmplx.Abs(got[k] - h[i])).To(BeNumerically("<", 1e-9))
			}
		})

		It("keeps the frame fixed and the spins constant for aligned spins", func() {
			w, err := model.Evaluate(surrogate.Request{
				Params:  aligned,
				EllMax:  2,
				Options: surrogate.Options{ReturnDynamics: true},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Dynamics).NotTo(BeNil())
			for i := range w.Times {
				Expect(w.Dynamics.ChiA[i][2]).To(BeNumerically("~", 0.3, 1e-12))
				Expect(w.Dynamics.ChiB[i][2]).To(BeNumerically("~", -0.1, 1e-12))
				Expect(w.Dynamics.Quat[i][0]).To(BeNumerically("~", 1, 1e-12))
			}
		})

		It("returns resampled dynamics with preserved spin norms", func() {
			w, err := model.Evaluate(surrogate.Request{
				Params:  precessing,
				EllMax:  2,
				Dt:      3,
				Options: surrogate.Options{ReturnDynamics: true, InitPhase: 0.4},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Dynamics.ChiA).To(HaveLen(len(w.Times)))
			na := dynamo.Norm3(precessing.ChiA)
			for i := range w.Times {
				Expect(dynamo.Norm3(w.Dynamics.ChiA[i])).To(BeNumerically("~", na, 1e-12))
				Expect(w.Dynamics.Quat[i].Norm()).To(BeNumerically("~", 1, 1e-12))
			}
		})

		It("sums the modes along a direction", func() {
			theta, phi := 0.6, 1.1
			w, err := model.Evaluate(surrogate.Request{
				Params: precessing, EllMax: 3, Theta: ptr(theta), Phi: ptr(phi),
			})
			Expect(err).NotTo(HaveOccurred())

			want := harmonics.ModeSum(w.Stacked(), 3, theta, phi)
			Expect(w.Strain).To(HaveLen(len(w.Times)))
			for i := range want {
				Expect(cmplx.Abs(w.Strain[i] - want[i])).To(BeNumerically("<", 1e-15))
			}
		})

		It("matches the plain convention when the initial phase vanishes", func() {
			plain, err := model.Evaluate(surrogate.Request{Params: precessing, EllMax: 2})
			Expect(err).NotTo(HaveOccurred())
			lal, err := model.Evaluate(surrogate.Request{
				Params: precessing, EllMax: 2,
				Options: surrogate.Options{UseLALConventions: true},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(lal.Modes).To(Equal(plain.Modes))
		})

		It("accepts a reference frequency", func() {
			w, err := model.Evaluate(surrogate.Request{Params: aligned, EllMax: 2, FRef: ptr(0.05 / math.Pi)})
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Times).To(HaveLen(len(model.CoorbitalTimes())))
		})

		DescribeTable("rejects invalid requests",
			func(mutate func(*surrogate.Request)) {
				req := surrogate.Request{Params: aligned, EllMax: 2}
				mutate(&req)
				_, err := model.Evaluate(req)
				Expect(err).To(MatchError(dynamo.ErrDomain))
			},
			Entry("both reference time and frequency", func(r *surrogate.Request) {
				r.TRef = ptr(-500)
				r.FRef = ptr(0.02)
			}),
			Entry("both dt and times", func(r *surrogate.Request) {
				r.Dt = 1
				r.Times = []float64{0}
			}),
			Entry("times before the model start", func(r *surrogate.Request) {
				r.Times = []float64{-2000, 0}
			}),
			Entry("times after the model end", func(r *surrogate.Request) {
				r.Times = []float64{0, 1000}
			}),
			Entry("theta without phi", func(r *surrogate.Request) {
				r.Theta = ptr(0.2)
			}),
			Entry("ellMax above the model", func(r *surrogate.Request) {
				r.EllMax = 5
			}),
			Entry("spin above the physical bound", func(r *surrogate.Request) {
				r.Params.ChiA = [3]float64{0.8, 0, 0.8}
			}),
			Entry("reference frequency too high", func(r *surrogate.Request) {
				r.FRef = ptr(0.3 / math.Pi)
			}),
			Entry("dt too small to sample", func(r *surrogate.Request) {
				r.Dt = 1e-300
			}),
			Entry("dt above the sample budget", func(r *surrogate.Request) {
				r.Dt = 1e-5
			}),
		)
	})

	Describe("TimeAtFrequency", func() {
		It("inverts the orbital frequency", func() {
			c := 1 + 0.01*fit.QOffset
			for _, omega := range []float64{0.03, 0.05, 0.1} {
				got, err := model.TimeAtFrequency(omega/math.Pi, surrogate.Request{Params: dynamo.Params{MassRatio: 1}})
				Expect(err).NotTo(HaveOccurred())
				want := 100 + 300*math.Log((omega/c-0.02)/0.1)
				Expect(got).To(BeNumerically("~", want, 1))
			}
		})

		It("rejects frequencies outside the evolution", func() {
			req := surrogate.Request{Params: dynamo.Params{MassRatio: 1}}
			_, err := model.TimeAtFrequency(0.001, req)
			Expect(err).To(MatchError(dynamo.ErrDomain))
			_, err = model.TimeAtFrequency(0.19/math.Pi, req)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})
	})

	Describe("EvaluateBatch", func() {
		It("matches sequential evaluation", func() {
			reqs := []surrogate.Request{
				{Params: aligned, EllMax: 2},
				{Params: precessing, EllMax: 3},
				{Params: dynamo.Params{MassRatio: 2}, EllMax: 2, Dt: 5},
			}
			got, err := model.EvaluateBatch(context.Background(), reqs, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(len(reqs)))
			for i, req := range reqs {
				want, err := model.Evaluate(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(got[i].Modes).To(Equal(want.Modes))
			}
		})

		It("fails when any request fails", func() {
			reqs := []surrogate.Request{
				{Params: aligned, EllMax: 2},
				{Params: aligned, EllMax: 9},
			}
			_, err := model.EvaluateBatch(context.Background(), reqs, 0)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})
	})
})
