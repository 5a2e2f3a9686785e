// Package coorb evaluates the coorbital-frame waveform surrogate.
//
// Each (ell, m) with m > 0 is stored as four empirical interpolants Re+,
// Re-, Im+ and Im- describing the pair (ell, m), (ell, -m) together; m = 0
// is stored as its real and imaginary parts.
package coorb

import (
	"context"

	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/eim"
	"github.com/san-kum/nrsur/internal/quaternion"
)

// MinEll is the lowest ell carried by every model.
const MinEll = 2

// modePair holds the interpolants of one (ell, |m|).
type modePair struct {
	rePlus, reMinus, imPlus, imMinus *eim.Interpolant
}

type Surrogate struct {
	t      []float64
	ellMax int
	// zero[ell] holds the real and imaginary parts of (ell, 0).
	zero  map[int][2]*eim.Interpolant
	pairs map[[2]int]modePair
}

// Load reads t_coorb and the hCoorb_* groups. The model's ellMax is the
// largest ell for which hCoorb_<ell>_<ell>_Re+ exists.
func Load(ctx context.Context, src datasource.Source) (*Surrogate, error) {
	ellMax := MinEll
	for ellMax < quaternion.MaxEll {
		ok, err := src.Has(ctx, datasource.ModeGroup(ellMax+1, ellMax+1, "Re+")+"/EIBasis")
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ellMax++
	}

	tArr, err := src.Array(ctx, "t_coorb")
	if err != nil {
		return nil, err
	}

	s := &Surrogate{
		t:      append([]float64(nil), tArr.Data...),
		ellMax: ellMax,
		zero:   make(map[int][2]*eim.Interpolant),
		pairs:  make(map[[2]int]modePair),
	}

	load := func(ell, m int, variant string) (*eim.Interpolant, error) {
		ei, err := eim.Load(ctx, src, datasource.ModeGroup(ell, m, variant))
		if err != nil {
			return nil, err
		}
		if ei.Len() != len(s.t) {
			return nil, dynamo.Configf("coorb", "(%d,%d) %s has %d samples, t_coorb has %d",
				ell, m, variant, ei.Len(), len(s.t))
		}
		return ei, nil
	}

	for ell := MinEll; ell <= ellMax; ell++ {
		re, err := load(ell, 0, "real")
		if err != nil {
			return nil, err
		}
		im, err := load(ell, 0, "imag")
		if err != nil {
			return nil, err
		}
		s.zero[ell] = [2]*eim.Interpolant{re, im}

		for m := 1; m <= ell; m++ {
			var p modePair
			for _, c := range []struct {
				variant string
				dst     **eim.Interpolant
			}{
				{"Re+", &p.rePlus},
				{"Re-", &p.reMinus},
				{"Im+", &p.imPlus},
				{"Im-", &p.imMinus},
			} {
				if *c.dst, err = load(ell, m, c.variant); err != nil {
					return nil, err
				}
			}
			s.pairs[[2]int{ell, m}] = p
		}
	}
	return s, nil
}

// Times returns t_coorb.
func (s *Surrogate) Times() []float64 {
	return append([]float64(nil), s.t...)
}

// EllMax is the largest ell the model can evaluate.
func (s *Surrogate) EllMax() int {
	return s.ellMax
}

// Evaluate returns the stacked coorbital modes (2,-2) ... (ellMax, ellMax)
// on t_coorb. chiA and chiB are the coorbital-frame spins sampled on
// t_coorb.
func (s *Surrogate) Evaluate(q float64, chiA, chiB [][3]float64, ellMax int) ([][]complex128, error) {
	if ellMax < MinEll || ellMax > s.ellMax {
		return nil, dynamo.Domainf("coorb", "ellMax %d outside [%d, %d]", ellMax, MinEll, s.ellMax)
	}
	n := len(s.t)
	if len(chiA) != n || len(chiB) != n {
		return nil, dynamo.Domainf("coorb", "spins have %d and %d samples, t_coorb has %d", len(chiA), len(chiB), n)
	}

	modes := make([][]complex128, quaternion.NumModes(ellMax))
	for ell := MinEll; ell <= ellMax; ell++ {
		z := s.zero[ell]
		modes[quaternion.ModeIndex(ell, 0)] = combine(z[0].Eval(q, chiA, chiB), z[1].Eval(q, chiA, chiB))

		for m := 1; m <= ell; m++ {
			p := s.pairs[[2]int{ell, m}]
			hPlus := combine(p.rePlus.Eval(q, chiA, chiB), p.imPlus.Eval(q, chiA, chiB))
			hMinus := combine(p.reMinus.Eval(q, chiA, chiB), p.imMinus.Eval(q, chiA, chiB))
			pos, neg := assemblePair(hPlus, hMinus)
			modes[quaternion.ModeIndex(ell, m)] = pos
			modes[quaternion.ModeIndex(ell, -m)] = neg
		}
	}
	return modes, nil
}

func combine(re, im []float64) []complex128 {
	h := make([]complex128, len(re))
	for i := range h {
		h[i] = complex(re[i], im[i])
	}
	return h
}

// assemblePair inverts the decomposition taken with (ell, -m) as the
// reference mode:
//
//	hPlus  = (h[ell,-m] + conj(h[ell,m])) / 2
//	hMinus = (h[ell,-m] - conj(h[ell,m])) / 2
func assemblePair(hPlus, hMinus []complex128) (pos, neg []complex128) {
	pos = make([]complex128, len(hPlus))
	neg = make([]complex128, len(hPlus))
	for i := range hPlus {
		d := hPlus[i] - hMinus[i]
		pos[i] = complex(real(d), -imag(d))
		neg[i] = hPlus[i] + hMinus[i]
	}
	return pos, neg
}
