package quaternion

import (
	"math"
	"math/cmplx"
)

// smallComponent is the magnitude below which ra or rb is treated as zero.
const smallComponent = 1e-12

// WignerD holds D[ell](m, m')(t_i) for 2 <= ell <= EllMax over N samples.
// Row m indexes the output mode, column m' the input mode.
type WignerD struct {
	EllMax int
	N      int
	mats   [][]complex128
}

// At returns the (m, m') entry of the ell matrix at sample i.
func (w *WignerD) At(ell, m, mp, i int) complex128 {
	dim := 2*ell + 1
	return w.mats[ell-2][((ell+m)*dim+(ell+mp))*w.N+i]
}

func (w *WignerD) set(ell, m, mp, i int, v complex128) {
	dim := 2*ell + 1
	w.mats[ell-2][((ell+m)*dim+(ell+mp))*w.N+i] = v
}

// wignerTerm holds the time-independent pieces of one (ell, m, m') entry.
type wignerTerm struct {
	ell, m, mp int
	coef       float64
	rhoMin     int
	sums       []float64
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func binom(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	return factorial(n) / (factorial(k) * factorial(n-k))
}

// wignerCoef is sqrt((ell+m)!(ell-m)! / ((ell+mp)!(ell-mp)!)).
func wignerCoef(ell, mp, m int) float64 {
	return math.Sqrt(factorial(ell+m) * factorial(ell-m) / (factorial(ell+mp) * factorial(ell-mp)))
}

func wignerTerms(ellMax int) []wignerTerm {
	var terms []wignerTerm
	for ell := 2; ell <= ellMax; ell++ {
		for m := -ell; m <= ell; m++ {
			for mp := -ell; mp <= ell; mp++ {
				rhoMin := max(0, mp-m)
				rhoMax := min(ell+mp, ell-m)
				t := wignerTerm{ell: ell, m: m, mp: mp, coef: wignerCoef(ell, mp, m), rhoMin: rhoMin}
				for rho := rhoMin; rho <= rhoMax; rho++ {
					sign := 1.0
					if rho%2 == 1 {
						sign = -1
					}
					t.sums = append(t.sums, sign*binom(ell+mp, rho)*binom(ell-mp, ell-rho-m))
				}
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// cpow raises z to an integer power by repeated multiplication.
func cpow(z complex128, n int) complex128 {
	if n < 0 {
		return 1 / cpow(z, -n)
	}
	r := complex(1, 0)
	for i := 0; i < n; i++ {
		r *= z
	}
	return r
}

// BuildWignerD computes the Wigner-D matrices of every sample of qs for
// 2 <= ell <= ellMax, with ra = w + i z and rb = y + i x.
//
// Samples where |ra| or |rb| is below 1e-12 use the closed-form limits: for
// ra ~ 0 only m' = -m survives with value (-1)^(ell+m) rb^(2m); for rb ~ 0
// only m' = m survives with value ra^(2m).
func BuildWignerD(qs Series, ellMax int) *WignerD {
	n := len(qs)
	w := &WignerD{EllMax: ellMax, N: n, mats: make([][]complex128, ellMax-1)}
	for ell := 2; ell <= ellMax; ell++ {
		dim := 2*ell + 1
		w.mats[ell-2] = make([]complex128, dim*dim*n)
	}

	terms := wignerTerms(ellMax)
	span := 2 * ellMax
	raPows := make([]complex128, 2*span+1)
	rbPows := make([]complex128, 2*span+1)
	absRaSqrPows := make([]float64, span+1)
	ratioPows := make([]float64, span+1)

	for i, q := range qs {
		ra := complex(q[0], q[3])
		rb := complex(q[2], q[1])
		raSmall := cmplx.Abs(ra) < smallComponent
		rbSmall := cmplx.Abs(rb) < smallComponent

		switch {
		case raSmall:
			// (-1)^(ell+m) is the limit of the general sum as |ra| -> 0.
			for ell := 2; ell <= ellMax; ell++ {
				for m := -ell; m <= ell; m++ {
					v := cpow(rb, 2*m)
					if (ell+m)%2 != 0 {
						v = -v
					}
					w.set(ell, m, -m, i, v)
				}
			}
		case rbSmall:
			for ell := 2; ell <= ellMax; ell++ {
				for m := -ell; m <= ell; m++ {
					w.set(ell, m, m, i, cpow(ra, 2*m))
				}
			}
		default:
			for p := -span; p <= span; p++ {
				raPows[p+span] = cpow(ra, p)
				rbPows[p+span] = cpow(rb, p)
			}
			absRaSqr := real(ra)*real(ra) + imag(ra)*imag(ra)
			ratio := (real(rb)*real(rb) + imag(rb)*imag(rb)) / absRaSqr
			absRaSqrPows[0], ratioPows[0] = 1, 1
			for p := 1; p <= span; p++ {
				absRaSqrPows[p] = absRaSqrPows[p-1] * absRaSqr
				ratioPows[p] = ratioPows[p-1] * ratio
			}

			for _, t := range terms {
				factor := complex(t.coef*absRaSqrPows[t.ell-t.m], 0)
				factor *= raPows[span+t.m+t.mp] * rbPows[span+t.m-t.mp]
				s := 0.0
				for j, c := range t.sums {
					s += c * ratioPows[t.rhoMin+j]
				}
				w.set(t.ell, t.m, t.mp, i, factor*complex(s, 0))
			}
		}
	}
	return w
}
