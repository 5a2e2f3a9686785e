// Package synthetic writes a small, schema-complete surrogate model with
// closed-form ingredients: a chirping orbital frequency, spin-driven
// precession and mode amplitudes peaking at t = 0. It backs the tests and
// the demo-model command.
package synthetic

import (
	"math"
	"strconv"

	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/fit"
)

type Options struct {
	// EllMax is the largest ell stored for the coorbital waveform.
	EllMax int
	// Precession scales the in-plane frame rotation and spin precession
	// driven by in-plane spins.
	Precession float64
}

func DefaultOptions() Options {
	return Options{EllMax: 4, Precession: 0.05}
}

// Grid layout, in units of total mass. Integers keep every node exact.
const (
	tStart    = -1000
	halfStep  = 5
	coarse    = 10
	tFine     = -200
	fine      = 5
	tEnd      = 100
	coorbT0   = -990
	coorbTf   = 90
	coorbStep = 2
)

// eiNodeTimes are the coorbital times whose spins drive the empirical nodes.
var eiNodeTimes = []int{-990, -700, -400, -200, -100, -40, 0, 30, 60, 90}

// DynamicsGrid returns t_ds: three pairs of half steps, coarse spacing up
// to tFine, fine spacing to the end.
func DynamicsGrid() []float64 {
	var t []float64
	for k := 0; k <= 6; k++ {
		t = append(t, float64(tStart+halfStep*k))
	}
	for v := tStart + 6*halfStep + coarse; v <= tFine; v += coarse {
		t = append(t, float64(v))
	}
	for v := tFine + fine; v <= tEnd; v += fine {
		t = append(t, float64(v))
	}
	return t
}

// CoorbitalGrid returns t_coorb.
func CoorbitalGrid() []float64 {
	var t []float64
	for v := coorbT0; v <= coorbTf; v += coorbStep {
		t = append(t, float64(v))
	}
	return t
}

// OrbitalFrequency is the node value of the omega fit for aligned,
// equal-mass, zero-spin input.
func OrbitalFrequency(t float64) float64 {
	return 0.02 + 0.1*math.Exp((t-tEnd)/300)
}

// Amplitude is the coorbital (2,2) profile; other modes are scaled copies.
func Amplitude(t float64) float64 {
	return 0.05 + 0.35/(1+(t/60)*(t/60))
}

func modeScale(ell, m int) float64 {
	return math.Pow(0.3, float64(ell-2)) * math.Pow(0.4, float64(ell-m))
}

type term struct {
	orders [fit.NumParams]int
	coef   float64
}

// putFit stores "<prefix>_bfOrders" and "<prefix>_coefs".
func putFit(src *datasource.Memory, prefix string, terms []term) error {
	return putTerms(src, prefix+"_bfOrders", prefix+"_coefs", terms)
}

func putTerms(src *datasource.Memory, ordersName, coefsName string, terms []term) error {
	orders := make([]float64, 0, len(terms)*fit.NumParams)
	coefs := make([]float64, 0, len(terms))
	for _, tm := range terms {
		for _, o := range tm.orders {
			orders = append(orders, float64(o))
		}
		coefs = append(coefs, tm.coef)
	}
	if err := src.Put(ordersName, datasource.Matrix(len(terms), fit.NumParams, orders)); err != nil {
		return err
	}
	return src.Put(coefsName, datasource.Vector(coefs))
}

var (
	constant = [fit.NumParams]int{}
	qLinear  = [fit.NumParams]int{1, 0, 0, 0, 0, 0, 0}
	chi1x    = [fit.NumParams]int{0, 1, 0, 0, 0, 0, 0}
	chi1y    = [fit.NumParams]int{0, 0, 1, 0, 0, 0, 0}
	chiHat   = [fit.NumParams]int{0, 0, 0, 1, 0, 0, 0}
	chi2x    = [fit.NumParams]int{0, 0, 0, 0, 1, 0, 0}
	chi2y    = [fit.NumParams]int{0, 0, 0, 0, 0, 1, 0}
	chiAnti  = [fit.NumParams]int{0, 0, 0, 0, 0, 0, 1}
)

// Build writes a complete model into a new in-memory source.
func Build(opts Options) (*datasource.Memory, error) {
	src := datasource.NewMemory()
	if err := buildDynamics(src, opts); err != nil {
		return nil, err
	}
	if err := buildCoorbital(src, opts); err != nil {
		return nil, err
	}
	return src, nil
}

func buildDynamics(src *datasource.Memory, opts Options) error {
	t := DynamicsGrid()
	if err := src.Put("t_ds", datasource.Vector(t)); err != nil {
		return err
	}

	for i, ti := range t {
		w := OrbitalFrequency(ti)
		p := opts.Precession * w
		g := datasource.NodeGroup(i) + "/"

		fits := []struct {
			name  string
			terms []term
		}{
			{"omega", []term{{constant, w}, {qLinear, 0.01 * w}, {chiHat, 0.05 * w}}},
			{"omega_orb_0", []term{{chi1x, p}, {chi2x, p}}},
			{"omega_orb_1", []term{{chi1y, p}, {chi2y, p}}},
			{"chiA_0", []term{{chi1y, -p}}},
			{"chiA_1", []term{{chi1x, p}}},
			{"chiA_2", []term{{constant, 0}}},
			{"chiB_0", []term{{chi2y, -p}}},
			{"chiB_1", []term{{chi2x, p}}},
			{"chiB_2", []term{{constant, 0}}},
		}
		for _, f := range fits {
			if err := putFit(src, g+f.name, f.terms); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildCoorbital(src *datasource.Memory, opts Options) error {
	t := CoorbitalGrid()
	if err := src.Put("t_coorb", datasource.Vector(t)); err != nil {
		return err
	}

	nodes := make([]float64, len(eiNodeTimes))
	for k, tn := range eiNodeTimes {
		nodes[k] = float64((tn - coorbT0) / coorbStep)
	}
	basis := hatBasis(t, eiNodeTimes)

	for ell := 2; ell <= opts.EllMax; ell++ {
		for m := 0; m <= ell; m++ {
			a := modeScale(ell, m)
			comps := map[string]func(tn float64) []term{}
			if m == 0 {
				comps["real"] = func(tn float64) []term {
					return []term{{constant, 0.5 * a * Amplitude(tn)}, {chiHat, 0.02 * a * Amplitude(tn)}}
				}
				comps["imag"] = func(tn float64) []term {
					return []term{{constant, 0}}
				}
			} else {
				comps["Re+"] = func(tn float64) []term {
					amp := a * Amplitude(tn)
					return []term{{constant, amp}, {qLinear, 0.02 * amp}, {chiHat, 0.03 * amp}}
				}
				comps["Im+"] = func(tn float64) []term {
					return []term{{constant, 0.01 * a * Amplitude(tn)}, {chi1x, 0.02 * a * Amplitude(tn)}}
				}
				comps["Re-"] = func(tn float64) []term {
					return []term{{chiAnti, 0.05 * a * Amplitude(tn)}}
				}
				comps["Im-"] = func(tn float64) []term {
					return []term{{chi2y, 0.02 * a * Amplitude(tn)}}
				}
			}

			for variant, terms := range comps {
				g := datasource.ModeGroup(ell, m, variant)
				if err := src.Put(g+"/EIBasis", basis); err != nil {
					return err
				}
				if err := src.Put(g+"/nodeIndices", datasource.Vector(nodes)); err != nil {
					return err
				}
				for k, tn := range eiNodeTimes {
					suffix := strconv.Itoa(k)
					err := putTerms(src,
						g+"/nodeModelers/bfOrders_"+suffix,
						g+"/nodeModelers/coefs_"+suffix,
						terms(float64(tn)))
					if err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// hatBasis returns the empirical basis whose rows are piecewise-linear hat
// functions on the node times, so the dense series linearly interpolates
// the node values.
func hatBasis(t []float64, nodeTimes []int) datasource.Array {
	n := len(nodeTimes)
	data := make([]float64, n*len(t))
	for k := range nodeTimes {
		center := float64(nodeTimes[k])
		for i, ti := range t {
			var v float64
			switch {
			case ti == center:
				v = 1
			case k > 0 && ti > float64(nodeTimes[k-1]) && ti < center:
				left := float64(nodeTimes[k-1])
				v = (ti - left) / (center - left)
			case k < n-1 && ti > center && ti < float64(nodeTimes[k+1]):
				right := float64(nodeTimes[k+1])
				v = (right - ti) / (right - center)
			}
			data[k*len(t)+i] = v
		}
	}
	return datasource.Matrix(n, len(t), data)
}
