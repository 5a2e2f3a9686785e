// Package harmonics evaluates spin-weighted spherical harmonics.
package harmonics

import (
	"math"
	"math/cmplx"
)

// SYlm returns the spin-weighted spherical harmonic sY_lm(theta, phi) in the
// convention of Goldberg et al. (1967), so that
// -2Y22 = sqrt(5/(64 pi)) (1 + cos theta)^2 exp(2i phi).
// It is zero when |s| > l or |m| > l.
func SYlm(s, l, m int, theta, phi float64) complex128 {
	if l < 0 || abs(s) > l || abs(m) > l {
		return 0
	}

	sh, ch := math.Sincos(theta / 2)
	norm := math.Sqrt(factorial(l+m) * factorial(l-m) * float64(2*l+1) /
		(4 * math.Pi * factorial(l+s) * factorial(l-s)))
	if m%2 != 0 {
		norm = -norm
	}

	// sin^{2l}(theta/2) cot^k(theta/2) = sin^{2l-k} cos^k, which stays
	// finite at the poles.
	sum := 0.0
	for r := 0; r <= l-s; r++ {
		j := r + s - m
		if j < 0 || j > l+s {
			continue
		}
		k := 2*r + s - m
		term := binom(l-s, r) * binom(l+s, j) * ipow(sh, 2*l-k) * ipow(ch, k)
		if (l-r-s)%2 != 0 {
			term = -term
		}
		sum += term
	}
	return complex(norm*sum, 0) * cmplx.Exp(complex(0, float64(m)*phi))
}

// ModeSum returns Sum_{l,m} h[l,m] sY_lm(theta, phi) for the stacked modes
// (2,-2) ... (ellMax, ellMax).
func ModeSum(h [][]complex128, ellMax int, theta, phi float64) []complex128 {
	if len(h) == 0 {
		return nil
	}
	out := make([]complex128, len(h[0]))
	i := 0
	for l := 2; l <= ellMax; l++ {
		for m := -l; m <= l; m++ {
			y := SYlm(-2, l, m, theta, phi)
			for k, v := range h[i] {
				out[k] += y * v
			}
			i++
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func binom(n, k int) float64 {
	return factorial(n) / (factorial(k) * factorial(n-k))
}

// ipow is x^n for n >= 0 with 0^0 = 1.
func ipow(x float64, n int) float64 {
	p := 1.0
	for ; n > 0; n-- {
		p *= x
	}
	return p
}
