// Package spline is the cubic-spline provider used to evaluate the
// dynamics right-hand side between grid nodes and to resample series
// between the dynamics, coorbital and output time grids.
//
// The interpolant is the not-a-knot cubic spline, which is the
// interpolating cubic spline with knots at the interior samples.
package spline

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// MinPoints is the smallest sample count a cubic interpolant accepts.
const MinPoints = 4

func fit(xs, ys []float64) (*interp.NotAKnotCubic, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("spline: %d abscissae but %d ordinates", len(xs), len(ys))
	}
	if len(xs) < MinPoints {
		return nil, fmt.Errorf("spline: need at least %d points, got %d", MinPoints, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("spline: abscissae not strictly increasing at %d", i)
		}
	}
	var s interp.NotAKnotCubic
	if err := s.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("spline: %w", err)
	}
	return &s, nil
}

// Interpolate fits (xs, ys) and evaluates the spline at every point of at.
func Interpolate(xs, ys, at []float64) ([]float64, error) {
	s, err := fit(xs, ys)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(at))
	for i, x := range at {
		out[i] = s.Predict(x)
	}
	return out, nil
}

// At fits (xs, ys) and evaluates the spline at x.
func At(xs, ys []float64, x float64) (float64, error) {
	s, err := fit(xs, ys)
	if err != nil {
		return 0, err
	}
	return s.Predict(x), nil
}

// Many interpolates each series of ys independently.
func Many(xs []float64, ys [][]float64, at []float64) ([][]float64, error) {
	out := make([][]float64, len(ys))
	for i, y := range ys {
		v, err := Interpolate(xs, y, at)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Complex interpolates real and imaginary parts independently.
func Complex(xs []float64, ys []complex128, at []float64) ([]complex128, error) {
	re := make([]float64, len(ys))
	im := make([]float64, len(ys))
	for i, v := range ys {
		re[i], im[i] = real(v), imag(v)
	}
	reAt, err := Interpolate(xs, re, at)
	if err != nil {
		return nil, err
	}
	imAt, err := Interpolate(xs, im, at)
	if err != nil {
		return nil, err
	}
	out := make([]complex128, len(at))
	for i := range out {
		out[i] = complex(reAt[i], imAt[i])
	}
	return out, nil
}

// Vectors interpolates a series of 3-vectors component by component.
func Vectors(xs []float64, vs [][3]float64, at []float64) ([][3]float64, error) {
	comps := make([][]float64, 3)
	for c := range comps {
		comps[c] = make([]float64, len(vs))
		for i, v := range vs {
			comps[c][i] = v[c]
		}
	}
	res, err := Many(xs, comps, at)
	if err != nil {
		return nil, err
	}
	out := make([][3]float64, len(at))
	for i := range out {
		out[i] = [3]float64{res[0][i], res[1][i], res[2][i]}
	}
	return out, nil
}
