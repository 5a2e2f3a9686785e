package dynamics

import (
	"math"

	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/integrators"
	"github.com/san-kum/nrsur/internal/quaternion"
)

// Input holds the initial data of a dynamics evaluation. At most one of
// TRef and OmegaRef may be set; with neither, the initial data is given at
// the first grid node.
type Input struct {
	Params    dynamo.Params
	InitPhase float64
	// InitQuat is the coprecessing frame at the reference time; nil means
	// the identity.
	InitQuat *[4]float64
	TRef     *float64
	// OmegaRef is an orbital angular frequency used to find TRef.
	OmegaRef *float64
}

func (in Input) initialState() dynamo.State {
	q := dynamo.IdentityQuat()
	if in.InitQuat != nil {
		q = *in.InitQuat
	}
	return dynamo.NewState(q, in.InitPhase, in.Params.ChiA, in.Params.ChiB)
}

// Result is the dynamics sampled on the output grid Times. Spins are
// expressed in the coprecessing frame.
type Result struct {
	Times []float64
	Quat  quaternion.Series
	Phase []float64
	ChiA  [][3]float64
	ChiB  [][3]float64
}

// Evaluate integrates the dynamics over the whole output grid.
func (s *Surrogate) Evaluate(in Input) (*Result, error) {
	if in.TRef != nil && in.OmegaRef != nil {
		return nil, dynamo.Domainf("dynamics", "specify at most one of the reference time and the reference frequency")
	}
	if err := in.Params.Validate(); err != nil {
		return nil, err
	}
	if in.InitQuat != nil && quaternion.Quat(*in.InitQuat).NormSqr() == 0 {
		return nil, dynamo.Domainf("dynamics", "initial quaternion must be non-zero")
	}

	tRef := in.TRef
	if in.OmegaRef != nil {
		t, err := s.ReferenceTime(*in.OmegaRef, in)
		if err != nil {
			return nil, err
		}
		tRef = &t
	}

	ig := &integration{
		s:     s,
		q:     in.Params.MassRatio,
		normA: dynamo.Norm3(in.Params.ChiA),
		normB: dynamo.Norm3(in.Params.ChiB),
		y:     make([]dynamo.State, len(s.tds)),
		rk4:   integrators.NewRK4(),
	}

	i0, err := ig.initialize(in.initialState(), tRef)
	if err != nil {
		return nil, err
	}

	switch {
	case i0 == 0:
		err = ig.fromStart()
	case i0 > 2:
		err = ig.fromInterior(i0)
	default:
		err = ig.nearStart(i0)
	}
	if err != nil {
		return nil, err
	}
	for j, y := range ig.y {
		if !y.IsValid() {
			return nil, dynamo.Domainf("dynamics", "non-finite state at t=%v; parameters are outside the fitted region", s.tds[j])
		}
	}
	return ig.result(), nil
}

// integration owns the trajectory buffer of one evaluation. y[j] is the
// state at tds[j] and is written exactly once.
type integration struct {
	s     *Surrogate
	q     float64
	normA float64
	normB float64
	y     []dynamo.State
	rk4   *integrators.RK4
}

func (ig *integration) set(j int, y dynamo.State) {
	integrators.Renormalize(y, ig.normA, ig.normB)
	ig.y[j] = y
}

func (ig *integration) nodeDeriv(j int) dynamo.State {
	return ig.s.DerivAtNode(nodeOf(j), ig.q, ig.y[j])
}

// initialize places the initial data on the output grid. An off-grid
// reference time is moved to the nearest node with one Euler step.
func (ig *integration) initialize(y0 dynamo.State, tRef *float64) (int, error) {
	if tRef == nil {
		ig.set(0, y0)
		return 0, nil
	}

	tds := ig.s.tds
	i0 := 0
	for j := range tds {
		if math.Abs(tds[j]-*tRef) < math.Abs(tds[i0]-*tRef) {
			i0 = j
		}
	}

	dydt0, err := ig.s.Deriv(*tRef, ig.q, y0)
	if err != nil {
		return 0, err
	}
	ig.set(i0, integrators.Euler(y0, dydt0, tds[i0]-*tRef))
	return i0, nil
}

// fromStart bootstraps with three RK4 steps over the half-step nodes, then
// runs AB4 forward to the end.
func (ig *integration) fromStart() error {
	var k [3]dynamo.State
	var dt [3]float64
	for i := 0; i < halfSteps; i++ {
		h := 2 * ig.s.diffT[2*i]
		first := 2 * i
		stage := func(c float64, y dynamo.State) (dynamo.State, error) {
			return ig.s.DerivAtNode(first+int(2*c), ig.q, y), nil
		}
		next, k1, err := ig.rk4.Step(stage, ig.y[i], h)
		if err != nil {
			return err
		}
		k[i], dt[i] = k1, h
		ig.set(i+1, next)
	}

	ig.integrateForward(halfSteps, integrators.NewAB4(integrators.Forward, k, dt))
	return nil
}

// fromInterior bootstraps three RK4 steps backward from i0, runs AB4 back
// to the start, then restarts AB4 forward from i0 using the bootstrap
// derivatives.
func (ig *integration) fromInterior(i0 int) error {
	var k [3]dynamo.State
	for i := 0; i < halfSteps; i++ {
		k1, err := ig.rk4Step(i0-i, integrators.Backward)
		if err != nil {
			return err
		}
		k[i] = k1
	}
	dtds := ig.s.dtds

	back := integrators.NewAB4(integrators.Backward, k,
		[3]float64{dtds[i0-1], dtds[i0-2], dtds[i0-3]})
	ig.integrateBackward(i0-3, back)

	fwd := integrators.NewAB4(integrators.Forward,
		[3]dynamo.State{ig.nodeDeriv(i0 - 3), k[2], k[1]},
		[3]float64{dtds[i0-3], dtds[i0-2], dtds[i0-1]})
	ig.integrateForward(i0, fwd)
	return nil
}

// nearStart mirrors fromInterior for 0 < i0 <= 2: RK4 and AB4 forward
// first, then AB4 backward from i0.
func (ig *integration) nearStart(i0 int) error {
	var k [3]dynamo.State
	for i := 0; i < halfSteps; i++ {
		k1, err := ig.rk4Step(i0+i, integrators.Forward)
		if err != nil {
			return err
		}
		k[i] = k1
	}
	dtds := ig.s.dtds

	fwd := integrators.NewAB4(integrators.Forward, k,
		[3]float64{dtds[i0], dtds[i0+1], dtds[i0+2]})
	ig.integrateForward(i0+3, fwd)

	back := integrators.NewAB4(integrators.Backward,
		[3]dynamo.State{ig.nodeDeriv(i0 + 3), k[2], k[1]},
		[3]float64{dtds[i0+2], dtds[i0+1], dtds[i0]})
	ig.integrateBackward(i0, back)
	return nil
}

// rk4Step takes one RK4 step from output node j to its neighbour in dir,
// evaluating the right-hand side off-grid, and returns the derivative at j.
func (ig *integration) rk4Step(j int, dir integrators.Direction) (dynamo.State, error) {
	t1 := ig.s.tds[j]
	t2 := ig.s.tds[j+int(dir)]
	h := t2 - t1

	stage := func(c float64, y dynamo.State) (dynamo.State, error) {
		at := t1 + c*h
		if c == 1 {
			at = t2
		}
		return ig.s.Deriv(at, ig.q, y)
	}
	next, k1, err := ig.rk4.Step(stage, ig.y[j], h)
	if err != nil {
		return nil, err
	}
	ig.set(j+int(dir), next)
	return k1, nil
}

// integrateForward fills y[j0+1:] from y[j0].
func (ig *integration) integrateForward(j0 int, ab *integrators.AB4) {
	for j := j0; j < len(ig.y)-1; j++ {
		next := ab.Step(ig.y[j], ig.nodeDeriv(j), ig.s.dtds[j])
		ig.set(j+1, next)
	}
}

// integrateBackward fills y[:j0] from y[j0].
func (ig *integration) integrateBackward(j0 int, ab *integrators.AB4) {
	for j := j0 - 1; j >= 0; j-- {
		next := ab.Step(ig.y[j+1], ig.nodeDeriv(j+1), ig.s.dtds[j])
		ig.set(j, next)
	}
}

func (ig *integration) result() *Result {
	n := len(ig.y)
	r := &Result{
		Times: ig.s.Times(),
		Quat:  make(quaternion.Series, n),
		Phase: make([]float64, n),
		ChiA:  make([][3]float64, n),
		ChiB:  make([][3]float64, n),
	}
	for j, y := range ig.y {
		r.Quat[j] = y.Quat()
		r.Phase[j] = y.Phase()
		r.ChiA[j] = y.ChiA()
		r.ChiB[j] = y.ChiB()
	}
	return r
}
