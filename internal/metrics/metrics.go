package metrics

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/nrsur/internal/quaternion"
	"github.com/san-kum/nrsur/internal/surrogate"
)

// Sample is one output time of an evaluated waveform.
type Sample struct {
	T    float64
	H22  complex128
	Quat quaternion.Quat
	ChiA [3]float64
	ChiB [3]float64
	// HasDynamics is false when the waveform carries no dynamics.
	HasDynamics bool
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Peak records the time of the largest |h22|.
type Peak struct {
	name  string
	amp   float64
	tPeak float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak_time", amp: -1}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s Sample) {
	if a := cmplx.Abs(s.H22); a > p.amp {
		p.amp = a
		p.tPeak = s.T
	}
}

func (p *Peak) Value() float64 { return p.tPeak }

// Amplitude is the largest |h22| seen.
func (p *Peak) Amplitude() float64 { return max(p.amp, 0) }

func (p *Peak) Reset() {
	p.amp = -1
	p.tPeak = 0
}

// QuatNorm records the largest deviation of the frame quaternion from unit
// norm.
type QuatNorm struct {
	name     string
	maxDelta float64
}

func NewQuatNorm() *QuatNorm {
	return &QuatNorm{name: "quat_norm_deviation"}
}

func (q *QuatNorm) Name() string { return q.name }

func (q *QuatNorm) Observe(s Sample) {
	if !s.HasDynamics {
		return
	}
	q.maxDelta = math.Max(q.maxDelta, math.Abs(s.Quat.Norm()-1))
}

func (q *QuatNorm) Value() float64 { return q.maxDelta }

func (q *QuatNorm) Reset() { q.maxDelta = 0 }

// SpinDrift records the largest change of either spin magnitude relative to
// its first observed value.
type SpinDrift struct {
	name         string
	normA, normB float64
	samples      int
	maxDrift     float64
}

func NewSpinDrift() *SpinDrift {
	return &SpinDrift{name: "spin_norm_drift"}
}

func (d *SpinDrift) Name() string { return d.name }

func (d *SpinDrift) Observe(s Sample) {
	if !s.HasDynamics {
		return
	}
	a := floats.Norm(s.ChiA[:], 2)
	b := floats.Norm(s.ChiB[:], 2)
	if d.samples == 0 {
		d.normA, d.normB = a, b
	}
	d.samples++
	d.maxDrift = math.Max(d.maxDrift, math.Max(math.Abs(a-d.normA), math.Abs(b-d.normB)))
}

func (d *SpinDrift) Value() float64 { return d.maxDrift }

func (d *SpinDrift) Reset() {
	d.normA, d.normB = 0, 0
	d.samples = 0
	d.maxDrift = 0
}

// Defaults returns the metrics reported for every evaluation.
func Defaults() []Metric {
	return []Metric{NewPeak(), NewQuatNorm(), NewSpinDrift()}
}

// Observe feeds every output sample of w to ms and returns their values by
// name.
func Observe(w *surrogate.Waveform, ms ...Metric) map[string]float64 {
	h22 := w.Modes[surrogate.Mode{Ell: 2, M: 2}]
	for i, t := range w.Times {
		s := Sample{T: t}
		if i < len(h22) {
			s.H22 = h22[i]
		}
		if d := w.Dynamics; d != nil {
			s.HasDynamics = true
			s.Quat = d.Quat[i]
			s.ChiA = d.ChiA[i]
			s.ChiB = d.ChiB[i]
		}
		for _, m := range ms {
			m.Observe(s)
		}
	}

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// PeakTime returns the time of the largest |h|.
func PeakTime(times []float64, h []complex128) float64 {
	p := NewPeak()
	for i, v := range h {
		p.Observe(Sample{T: times[i], H22: v})
	}
	return p.Value()
}

// MaxNormDeviation returns max_i ||q_i| - 1|.
func MaxNormDeviation(qs quaternion.Series) float64 {
	m := NewQuatNorm()
	for _, q := range qs {
		m.Observe(Sample{Quat: q, HasDynamics: true})
	}
	return m.Value()
}

// ModeAmplitude returns |h| sample by sample.
func ModeAmplitude(h []complex128) []float64 {
	out := make([]float64, len(h))
	for i, v := range h {
		out[i] = cmplx.Abs(v)
	}
	return out
}
