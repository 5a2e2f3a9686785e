package analysis

import (
	"github.com/san-kum/nrsur/internal/dynamo"
)

// Gradient returns dy/dx sampled at xs using second-order central
// differences in the interior and one-sided first-order differences at the
// ends. xs must be strictly increasing and have the length of ys.
func Gradient(ys, xs []float64) ([]float64, error) {
	n := len(ys)
	if len(xs) != n {
		return nil, dynamo.Configf("gradient", "%d samples on %d abscissae", n, len(xs))
	}
	if n < 2 {
		return nil, dynamo.Configf("gradient", "need at least 2 samples, got %d", n)
	}
	for i := 1; i < n; i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, dynamo.Configf("gradient", "abscissae not increasing at %d", i)
		}
	}

	out := make([]float64, n)
	out[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	out[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	for i := 1; i < n-1; i++ {
		h1 := xs[i] - xs[i-1]
		h2 := xs[i+1] - xs[i]
		a := -h2 / (h1 * (h1 + h2))
		b := (h2 - h1) / (h1 * h2)
		c := h1 / (h2 * (h1 + h2))
		out[i] = a*ys[i-1] + b*ys[i] + c*ys[i+1]
	}
	return out, nil
}

// Crossing returns the x at which ys first reaches level, interpolating
// linearly between the bracketing samples. ys is expected to increase; a
// level below ys[0] or above every sample is a domain error.
func Crossing(xs, ys []float64, level float64) (float64, error) {
	if len(xs) != len(ys) || len(ys) == 0 {
		return 0, dynamo.Configf("crossing", "%d samples on %d abscissae", len(ys), len(xs))
	}
	if level < ys[0] {
		return 0, dynamo.Domainf("crossing", "level %v below initial value %v", level, ys[0])
	}
	for i, y := range ys {
		if y < level {
			continue
		}
		if i == 0 || y == level {
			return xs[i], nil
		}
		frac := (level - ys[i-1]) / (y - ys[i-1])
		return xs[i-1] + frac*(xs[i]-xs[i-1]), nil
	}

	peak := ys[0]
	for _, y := range ys {
		peak = max(peak, y)
	}
	return 0, dynamo.Domainf("crossing", "level %v above maximum %v", level, peak)
}
