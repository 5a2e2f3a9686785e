package dynamics

import (
	"math"

	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/fit"
	"github.com/san-kum/nrsur/internal/spline"
)

// fitInput builds the raw fit parameters from a state: the spins are
// rotated from the coprecessing into the coorbital frame by the orbital
// phase.
func fitInput(q float64, y dynamo.State) [fit.NumParams]float64 {
	sp, cp := math.Sincos(y[4])
	return dynamo.Params{
		MassRatio: q,
		ChiA:      [3]float64{y[5]*cp + y[6]*sp, -y[5]*sp + y[6]*cp, y[7]},
		ChiB:      [3]float64{y[8]*cp + y[9]*sp, -y[8]*sp + y[9]*cp, y[10]},
	}.Raw()
}

// DerivAtNode evaluates dy/dt with the fits of full-grid node i.
func (s *Surrogate) DerivAtNode(i int, q float64, y dynamo.State) dynamo.State {
	x := fit.MapParams(fitInput(q, y))
	n := &s.nodes[i]

	ooxy := n.OmegaOrb.Eval(x)
	omega := n.Omega.Eval(x)
	cAdot := n.ChiADot.Eval(x)
	cBdot := n.ChiBDot.Eval(x)

	return assemble(y, ooxy, omega, cAdot, cBdot)
}

// assemble rotates the coorbital-frame fit outputs into the coprecessing
// frame. The quaternion obeys dq/dt = q * (0, Omega_x, Omega_y, 0) / 2.
func assemble(y dynamo.State, ooxy []float64, omega float64, cAdot, cBdot []float64) dynamo.State {
	sp, cp := math.Sincos(y[4])

	ox := ooxy[0]*cp - ooxy[1]*sp
	oy := ooxy[0]*sp + ooxy[1]*cp

	dydt := make(dynamo.State, dynamo.StateDim)
	dydt[0] = -0.5*y[1]*ox - 0.5*y[2]*oy
	dydt[1] = -0.5*y[3]*oy + 0.5*y[0]*ox
	dydt[2] = 0.5*y[3]*ox + 0.5*y[0]*oy
	dydt[3] = 0.5*y[1]*oy - 0.5*y[2]*ox

	dydt[4] = omega

	dydt[5] = cAdot[0]*cp - cAdot[1]*sp
	dydt[6] = cAdot[0]*sp + cAdot[1]*cp
	dydt[7] = cAdot[2]

	dydt[8] = cBdot[0]*cp - cBdot[1]*sp
	dydt[9] = cBdot[0]*sp + cBdot[1]*cp
	dydt[10] = cBdot[2]
	return dydt
}

// Deriv evaluates dy/dt at an arbitrary time t inside the grid by
// evaluating the node derivatives at the four nodes nearest t and
// interpolating them with a cubic spline.
func (s *Surrogate) Deriv(t, q float64, y dynamo.State) (dynamo.State, error) {
	if t < s.t[0] || t > s.t[len(s.t)-1] {
		return nil, dynamo.Domainf("dynamics", "cannot extrapolate time derivative to t=%v outside [%v, %v]",
			t, s.t[0], s.t[len(s.t)-1])
	}

	i0 := 0
	for i := range s.t {
		if math.Abs(s.t[i]-t) < math.Abs(s.t[i0]-t) {
			i0 = i
		}
	}
	imin := i0 - 2
	if t > s.t[i0] {
		imin = i0 - 1
	}
	imin = min(max(0, imin), len(s.t)-4)

	ts := s.t[imin : imin+4]
	comps := make([][]float64, dynamo.StateDim)
	for c := range comps {
		comps[c] = make([]float64, 4)
	}
	for k := 0; k < 4; k++ {
		d := s.DerivAtNode(imin+k, q, y)
		for c := range comps {
			comps[c][k] = d[c]
		}
	}

	dydt := make(dynamo.State, dynamo.StateDim)
	for c := range comps {
		v, err := spline.At(ts, comps[c], t)
		if err != nil {
			return nil, err
		}
		dydt[c] = v
	}
	return dydt, nil
}

// Omega is the orbital frequency fit of full-grid node i.
func (s *Surrogate) Omega(i int, q float64, y dynamo.State) float64 {
	return s.nodes[i].Omega.Eval(fit.MapParams(fitInput(q, y)))
}
