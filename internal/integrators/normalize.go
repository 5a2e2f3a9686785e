package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/nrsur/internal/dynamo"
)

// Renormalize rescales, in place, the quaternion block of y to unit norm and
// each spin block to its prescribed norm. Only magnitudes are corrected;
// directions are left as integrated. A zero spin block is left untouched.
func Renormalize(y dynamo.State, normA, normB float64) {
	q := y[0:4]
	floats.Scale(1/floats.Norm(q, 2), q)

	rescale(y[5:8], normA)
	rescale(y[8:11], normB)
}

func rescale(v []float64, target float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(target/n, v)
}
