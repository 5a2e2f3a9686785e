package integrators

import "github.com/san-kum/nrsur/internal/dynamo"

// Direction of integration along the time grid.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// AB4Weights returns w such that the Adams-Bashforth step is
// dy = w[0] k1 + w[1] k2 + w[2] k3 + w[3] k4, where k1..k4 are derivatives
// at times T1 < T2 < T3 < T4 with spacings dt1 = T2-T1, dt2 = T3-T2,
// dt3 = T4-T3, and dt4 is the step taken from T4. Each weight integrates
// the Lagrange basis polynomial of its node over [T4, T4+dt4]; for equal
// spacings h this is h/24 * (-9, 37, -59, 55).
func AB4Weights(dt1, dt2, dt3, dt4 float64) [4]float64 {
	s := [4]float64{-(dt1 + dt2 + dt3), -(dt2 + dt3), -dt3, 0}

	var w [4]float64
	for j := 0; j < 4; j++ {
		var roots [3]float64
		denom := 1.0
		r := 0
		for i := 0; i < 4; i++ {
			if i == j {
				continue
			}
			roots[r] = s[i]
			r++
			denom *= s[j] - s[i]
		}
		w[j] = integrateCubic(roots, dt4) / denom
	}
	return w
}

// integrateCubic is the integral over [0, h] of (x-a)(x-b)(x-c).
func integrateCubic(roots [3]float64, h float64) float64 {
	a, b, c := roots[0], roots[1], roots[2]
	e1 := a + b + c
	e2 := a*b + b*c + c*a
	e3 := a * b * c
	h2 := h * h
	return h2*h2/4 - e1*h2*h/3 + e2*h2/2 - e3*h
}

// AB4Delta is the Adams-Bashforth increment for a step of dt4.
func AB4Delta(k1, k2, k3, k4 dynamo.State, dt1, dt2, dt3, dt4 float64) dynamo.State {
	w := AB4Weights(dt1, dt2, dt3, dt4)
	dy := make(dynamo.State, len(k4))
	for i := range dy {
		dy[i] = w[0]*k1[i] + w[1]*k2[i] + w[2]*k3[i] + w[3]*k4[i]
	}
	return dy
}

// AB4 carries the three most recent derivatives and spacings of a
// multistep chain, oldest first.
type AB4 struct {
	k   [3]dynamo.State
	dt  [3]float64
	dir Direction
}

// NewAB4 starts a chain. k and dt are ordered from oldest to newest in the
// direction of integration, and every spacing is positive.
func NewAB4(dir Direction, k [3]dynamo.State, dt [3]float64) *AB4 {
	return &AB4{k: k, dt: dt, dir: dir}
}

// Step advances y, whose derivative is k4, by dt4 (positive) in the
// chain's direction and shifts the history.
func (a *AB4) Step(y, k4 dynamo.State, dt4 float64) dynamo.State {
	dy := AB4Delta(a.k[0], a.k[1], a.k[2], k4, a.dt[0], a.dt[1], a.dt[2], dt4)
	next := y.AddScaled(float64(a.dir), dy)

	a.k[0], a.k[1], a.k[2] = a.k[1], a.k[2], k4
	a.dt[0], a.dt[1], a.dt[2] = a.dt[1], a.dt[2], dt4
	return next
}
