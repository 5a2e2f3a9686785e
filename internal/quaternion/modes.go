package quaternion

import "github.com/san-kum/nrsur/internal/dynamo"

// MaxEll is the largest ell with a known mode-count mapping.
const MaxEll = 8

var modeCountEllMax = map[int]int{
	5:  2,
	12: 3,
	21: 4,
	32: 5,
	45: 6,
	60: 7,
	77: 8,
}

// EllMaxForModeCount maps a stacked mode count to its ellMax.
func EllMaxForModeCount(n int) (int, error) {
	ellMax, ok := modeCountEllMax[n]
	if !ok {
		return 0, dynamo.Configf("modes", "unrecognized mode count %d", n)
	}
	return ellMax, nil
}

// NumModes returns the number of (ell, m) modes with 2 <= ell <= ellMax.
func NumModes(ellMax int) int {
	return ellMax*ellMax + 2*ellMax - 3
}

// ModeIndex returns the position of (ell, m) in the stacked ordering
// (2,-2) ... (2,2), (3,-3) ...
func ModeIndex(ell, m int) int {
	return ell*(ell+1) - 4 + m
}

// RotateModes transforms stacked waveform modes h[mode][sample] from the
// frame described by qs to the inertial frame. The rotation applied is the
// Wigner-D matrix of the inverse quaternion, so the identity leaves h
// unchanged.
func RotateModes(qs Series, h [][]complex128) ([][]complex128, error) {
	ellMax, err := EllMaxForModeCount(len(h))
	if err != nil {
		return nil, err
	}
	n := len(qs)
	for i, mode := range h {
		if len(mode) != n {
			return nil, dynamo.Configf("modes", "mode %d has %d samples, quaternion series has %d", i, len(mode), n)
		}
	}

	d := BuildWignerD(InverseSeries(qs), ellMax)

	res := make([][]complex128, len(h))
	for i := range res {
		res[i] = make([]complex128, n)
	}
	for ell := 2; ell <= ellMax; ell++ {
		for m := -ell; m <= ell; m++ {
			out := res[ModeIndex(ell, m)]
			for mp := -ell; mp <= ell; mp++ {
				in := h[ModeIndex(ell, mp)]
				for i := 0; i < n; i++ {
					out[i] += d.At(ell, m, mp, i) * in[i]
				}
			}
		}
	}
	return res, nil
}
