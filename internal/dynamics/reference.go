package dynamics

import "github.com/san-kum/nrsur/internal/dynamo"

// MaxOmegaRef is the largest accepted reference orbital frequency.
const MaxOmegaRef = 0.201

// ReferenceTime finds the time at which the orbital frequency fit, held at
// the initial data of in, first exceeds omegaRef, interpolating linearly
// between the bracketing nodes.
func (s *Surrogate) ReferenceTime(omegaRef float64, in Input) (float64, error) {
	if omegaRef > MaxOmegaRef {
		return 0, dynamo.Domainf("dynamics", "reference frequency %.4f exceeds %.3f", omegaRef, MaxOmegaRef)
	}

	q := in.Params.MassRatio
	y0 := in.initialState()

	omega0 := s.Omega(0, q, y0)
	if omegaRef < omega0 {
		return 0, dynamo.Domainf("dynamics", "reference frequency %.4f is below the initial frequency %.4f", omegaRef, omega0)
	}

	imax := 1
	omegaMin := omega0
	omegaMax := s.Omega(imax, q, y0)
	for omegaMax <= omegaRef {
		imax++
		if imax >= len(s.t) {
			return 0, dynamo.Domainf("dynamics", "reference frequency %.4f is never reached (maximum %.4f)", omegaRef, omegaMax)
		}
		omegaMin = omegaMax
		omegaMax = s.Omega(imax, q, y0)
	}

	tRef := (s.t[imax-1]*(omegaMax-omegaRef) + s.t[imax]*(omegaRef-omegaMin)) / (omegaMax - omegaMin)
	if tRef < s.t[0] || tRef > s.t[len(s.t)-1] {
		return 0, dynamo.Domainf("dynamics", "reference time %v outside [%v, %v]", tRef, s.t[0], s.t[len(s.t)-1])
	}
	return tRef, nil
}
