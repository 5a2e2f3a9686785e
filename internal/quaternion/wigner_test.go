package quaternion

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/san-kum/nrsur/internal/dynamo"
)

func randomModes(rng *rand.Rand, ellMax, n int) [][]complex128 {
	h := make([][]complex128, NumModes(ellMax))
	for i := range h {
		h[i] = make([]complex128, n)
		for j := range h[i] {
			h[i][j] = complex(rng.NormFloat64(), rng.NormFloat64())
		}
	}
	return h
}

func TestEllMaxForModeCount(t *testing.T) {
	for ellMax := 2; ellMax <= MaxEll; ellMax++ {
		got, err := EllMaxForModeCount(NumModes(ellMax))
		if err != nil {
			t.Fatalf("ellMax %d: %v", ellMax, err)
		}
		if got != ellMax {
			t.Errorf("EllMaxForModeCount(%d) = %d, want %d", NumModes(ellMax), got, ellMax)
		}
	}

	for _, n := range []int{0, 4, 6, 13, 78} {
		if _, err := EllMaxForModeCount(n); !errors.Is(err, dynamo.ErrConfiguration) {
			t.Errorf("mode count %d: expected ErrConfiguration, got %v", n, err)
		}
	}
}

func TestModeIndex(t *testing.T) {
	idx := 0
	for ell := 2; ell <= 4; ell++ {
		for m := -ell; m <= ell; m++ {
			if got := ModeIndex(ell, m); got != idx {
				t.Errorf("ModeIndex(%d, %d) = %d, want %d", ell, m, got, idx)
			}
			idx++
		}
	}
}

func TestRotateModesIdentityIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, ellMax := range []int{2, 3, 4} {
		n := 8
		h := randomModes(rng, ellMax, n)
		qs := make(Series, n)
		for i := range qs {
			qs[i] = Identity()
		}
		out, err := RotateModes(qs, h)
		if err != nil {
			t.Fatal(err)
		}
		for i := range h {
			for j := range h[i] {
				if out[i][j] != h[i][j] {
					t.Fatalf("ellMax %d mode %d sample %d: %v != %v", ellMax, i, j, out[i][j], h[i][j])
				}
			}
		}
	}
}

func TestRotateModesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 16
	h := randomModes(rng, 4, n)
	qs := make(Series, n)
	for i := range qs {
		qs[i] = randomUnitQuat(rng)
	}
	// include both closed-form branches
	qs[0] = Quat{0, 1, 0, 0}
	qs[1] = ZRotation(0.7)

	rotated, err := RotateModes(qs, h)
	if err != nil {
		t.Fatal(err)
	}
	back, err := RotateModes(InverseSeries(qs), rotated)
	if err != nil {
		t.Fatal(err)
	}
	for i := range h {
		for j := range h[i] {
			if cmplx.Abs(back[i][j]-h[i][j]) > 1e-11 {
				t.Fatalf("mode %d sample %d: %v != %v", i, j, back[i][j], h[i][j])
			}
		}
	}
}

func TestRotateModesBadCount(t *testing.T) {
	h := make([][]complex128, 7)
	if _, err := RotateModes(Series{}, h); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestWignerDUnitary(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	qs := Series{randomUnitQuat(rng), randomUnitQuat(rng), {0, 0, 1, 0}, ZRotation(1.3)}
	d := BuildWignerD(qs, 4)
	for i := range qs {
		for ell := 2; ell <= 4; ell++ {
			for a := -ell; a <= ell; a++ {
				for b := -ell; b <= ell; b++ {
					var s complex128
					for c := -ell; c <= ell; c++ {
						s += d.At(ell, a, c, i) * cmplx.Conj(d.At(ell, b, c, i))
					}
					want := complex(0, 0)
					if a == b {
						want = 1
					}
					if cmplx.Abs(s-want) > 1e-12 {
						t.Fatalf("sample %d ell %d (%d,%d): D D^H = %v", i, ell, a, b, s)
					}
				}
			}
		}
	}
}

func TestWignerDBranchesAreContinuous(t *testing.T) {
	tests := []struct {
		name   string
		exact  Quat
		nearby Quat
	}{
		{"ra near zero", Quat{0, 1, 0, 0}, Quat{1e-7, 1, 0, 0}.Normalize()},
		{"ra near zero, y axis", Quat{0, 0.6, 0.8, 0}, Quat{1e-7, 0.6, 0.8, 0}.Normalize()},
		{"rb near zero", ZRotation(0.4), Quat{math.Cos(0.2), 1e-7, 0, math.Sin(0.2)}.Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exact := BuildWignerD(Series{tt.exact}, 4)
			nearby := BuildWignerD(Series{tt.nearby}, 4)
			for ell := 2; ell <= 4; ell++ {
				for m := -ell; m <= ell; m++ {
					for mp := -ell; mp <= ell; mp++ {
						a := exact.At(ell, m, mp, 0)
						b := nearby.At(ell, m, mp, 0)
						if cmplx.Abs(a-b) > 1e-5 {
							t.Errorf("ell %d (%d,%d): closed form %v, general %v", ell, m, mp, a, b)
						}
					}
				}
			}
		})
	}
}
