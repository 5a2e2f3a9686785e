package dynamo

import (
	"math"
)

// StateDim is the length of a dynamics state vector.
const StateDim = 11

// MaxSpinMagnitude is the largest accepted dimensionless spin magnitude.
const MaxSpinMagnitude = 1.001

// State is [q0, qx, qy, qz, orbphase, chiAx, chiAy, chiAz, chiBx, chiBy, chiBz]
// with the spins expressed in the coprecessing frame.
type State []float64

// NewState packs a quaternion, an orbital phase and two spins into a State.
func NewState(q [4]float64, phase float64, chiA, chiB [3]float64) State {
	return State{
		q[0], q[1], q[2], q[3],
		phase,
		chiA[0], chiA[1], chiA[2],
		chiB[0], chiB[1], chiB[2],
	}
}

// IdentityQuat is the unit quaternion that leaves every frame unchanged.
func IdentityQuat() [4]float64 {
	return [4]float64{1, 0, 0, 0}
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Quat() [4]float64 { return [4]float64{s[0], s[1], s[2], s[3]} }
func (s State) Phase() float64   { return s[4] }
func (s State) ChiA() [3]float64 { return [3]float64{s[5], s[6], s[7]} }
func (s State) ChiB() [3]float64 { return [3]float64{s[8], s[9], s[10]} }

// AddScaled returns s + h*k as a new State.
func (s State) AddScaled(h float64, k State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + h*k[i]
	}
	return result
}

// Params are the physical parameters of a binary: the mass ratio q = mA/mB
// and the two dimensionless spin vectors.
type Params struct {
	MassRatio float64
	ChiA      [3]float64
	ChiB      [3]float64
}

// Validate rejects non-positive mass ratios and unphysical spin magnitudes.
func (p Params) Validate() error {
	if !(p.MassRatio > 0) || math.IsInf(p.MassRatio, 0) {
		return Domainf("params", "mass ratio must be positive and finite, got %v", p.MassRatio)
	}
	if n := Norm3(p.ChiA); n > MaxSpinMagnitude {
		return Domainf("params", "spin A magnitude %.6f exceeds %.3f", n, MaxSpinMagnitude)
	}
	if n := Norm3(p.ChiB); n > MaxSpinMagnitude {
		return Domainf("params", "spin B magnitude %.6f exceeds %.3f", n, MaxSpinMagnitude)
	}
	return nil
}

// Raw returns [q, chiAx, chiAy, chiAz, chiBx, chiBy, chiBz].
func (p Params) Raw() [7]float64 {
	return [7]float64{
		p.MassRatio,
		p.ChiA[0], p.ChiA[1], p.ChiA[2],
		p.ChiB[0], p.ChiB[1], p.ChiB[2],
	}
}

func Norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
