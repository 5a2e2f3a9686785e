package integrators

import "github.com/san-kum/nrsur/internal/dynamo"

// StageFunc evaluates the right-hand side at fraction c of the current step
// (0, 0.5 or 1 for RK4). Callers map c onto either a grid node or a time.
type StageFunc func(c float64, y dynamo.State) (dynamo.State, error)

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Step takes one classical RK4 step of signed length h from y. It returns
// the new state and a copy of the first-stage derivative, which seeds the
// AB4 history.
func (r *RK4) Step(f StageFunc, y dynamo.State, h float64) (dynamo.State, dynamo.State, error) {
	n := len(y)
	r.ensureScratch(n)
	half := 0.5 * h

	k1, err := f(0, y)
	if err != nil {
		return nil, nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + half*r.k1[i]
	}
	k2, err := f(0.5, r.scratch)
	if err != nil {
		return nil, nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + half*r.k2[i]
	}
	k3, err := f(0.5, r.scratch)
	if err != nil {
		return nil, nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*r.k3[i]
	}
	k4, err := f(1, r.scratch)
	if err != nil {
		return nil, nil, err
	}
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = y[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result, r.k1.Clone(), nil
}
