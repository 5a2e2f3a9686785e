package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/nrsur/internal/quaternion"
	"github.com/san-kum/nrsur/internal/surrogate"
)

func TestPeakTime(t *testing.T) {
	times := []float64{-2, -1, 0, 1, 2}
	h := []complex128{0.1, 0.5i, complex(0.6, 0.6), -0.3, 0}
	if got := PeakTime(times, h); got != 0 {
		t.Errorf("PeakTime = %v, want 0", got)
	}
}

func TestModeAmplitude(t *testing.T) {
	got := ModeAmplitude([]complex128{complex(3, 4), -2i})
	if got[0] != 5 || got[1] != 2 {
		t.Errorf("ModeAmplitude = %v", got)
	}
}

func TestMaxNormDeviation(t *testing.T) {
	qs := quaternion.Series{
		{1, 0, 0, 0},
		{0, 0.6, 0.8, 0},
		{0, 0, 0, 1.001},
	}
	if got := MaxNormDeviation(qs); math.Abs(got-0.001) > 1e-12 {
		t.Errorf("MaxNormDeviation = %v, want 0.001", got)
	}
}

func TestObserve(t *testing.T) {
	w := &surrogate.Waveform{
		Times:  []float64{0, 1, 2},
		EllMax: 2,
		Modes: map[surrogate.Mode][]complex128{
			{Ell: 2, M: 2}: {0.1, 0.3, 0.2},
		},
		Dynamics: &surrogate.Dynamics{
			Quat: quaternion.Series{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}},
			ChiA: [][3]float64{{0, 0, 0.5}, {0, 0.3, 0.4}, {0, 0, 0.52}},
			ChiB: [][3]float64{{0.1, 0, 0}, {0, 0.1, 0}, {0, 0, 0.1}},
		},
	}

	ms := Defaults()
	got := Observe(w, ms...)
	if got["peak_time"] != 1 {
		t.Errorf("peak_time = %v, want 1", got["peak_time"])
	}
	if got["quat_norm_deviation"] != 0 {
		t.Errorf("quat_norm_deviation = %v, want 0", got["quat_norm_deviation"])
	}
	if d := got["spin_norm_drift"]; math.Abs(d-0.02) > 1e-12 {
		t.Errorf("spin_norm_drift = %v, want 0.02", d)
	}

	for _, m := range ms {
		m.Reset()
	}
	w.Dynamics = nil
	got = Observe(w, ms...)
	if got["spin_norm_drift"] != 0 {
		t.Errorf("drift without dynamics = %v", got["spin_norm_drift"])
	}
}
