// Package quaternion implements the quaternion algebra and the Wigner-D
// rotation machinery used to move waveform modes and vectors between the
// coorbital, coprecessing and inertial frames.
//
// Quaternions are stored as (w, x, y, z). Time series are slices indexed by
// time sample.
package quaternion

import "math"

// Quat is a quaternion (w, x, y, z).
type Quat [4]float64

// Series is a quaternion time series.
type Series []Quat

// Identity returns the unit quaternion (1, 0, 0, 0).
func Identity() Quat {
	return Quat{1, 0, 0, 0}
}

// ZRotation returns the unit quaternion rotating by angle about the z axis.
func ZRotation(angle float64) Quat {
	s, c := math.Sincos(0.5 * angle)
	return Quat{c, 0, 0, s}
}

// Multiply returns the Hamilton product a*b.
func Multiply(a, b Quat) Quat {
	return Quat{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[2]*b[3] - b[2]*a[3] + a[0]*b[1] + b[0]*a[1],
		a[3]*b[1] - b[3]*a[1] + a[0]*b[2] + b[0]*a[2],
		a[1]*b[2] - b[1]*a[2] + a[0]*b[3] + b[0]*a[3],
	}
}

// Conj returns the conjugate (w, -x, -y, -z).
func (q Quat) Conj() Quat {
	return Quat{q[0], -q[1], -q[2], -q[3]}
}

// NormSqr returns |q|^2.
func (q Quat) NormSqr() float64 {
	return q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]
}

func (q Quat) Norm() float64 {
	return math.Sqrt(q.NormSqr())
}

// Normalize returns q/|q|. q must be non-zero.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	return Quat{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// Inverse returns q*/|q|^2 so that Multiply(q, Inverse(q)) is the identity.
// q must be non-zero.
func Inverse(q Quat) Quat {
	c := q.Conj()
	n := q.NormSqr()
	return Quat{c[0] / n, c[1] / n, c[2] / n, c[3] / n}
}

// MultiplySeries multiplies two equal-length series sample by sample.
func MultiplySeries(a, b Series) Series {
	out := make(Series, len(a))
	for i := range a {
		out[i] = Multiply(a[i], b[i])
	}
	return out
}

// InverseSeries inverts every sample of s.
func InverseSeries(s Series) Series {
	out := make(Series, len(s))
	for i, q := range s {
		out[i] = Inverse(q)
	}
	return out
}

// Normalize rescales every sample of s to unit norm in place.
func (s Series) Normalize() {
	for i, q := range s {
		s[i] = q.Normalize()
	}
}

// RotateVector transforms v by conjugation with q: q (0, v) q^-1.
// With q the coprecessing frame quaternion this maps coprecessing-frame
// components to inertial-frame components.
func RotateVector(q Quat, v [3]float64) [3]float64 {
	p := Multiply(q, Multiply(Quat{0, v[0], v[1], v[2]}, Inverse(q)))
	return [3]float64{p[1], p[2], p[3]}
}

// RotateVectors applies RotateVector sample by sample.
func RotateVectors(qs Series, vs [][3]float64) [][3]float64 {
	out := make([][3]float64, len(vs))
	for i := range vs {
		out[i] = RotateVector(qs[i], vs[i])
	}
	return out
}
