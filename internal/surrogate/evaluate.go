package surrogate

import (
	"math"

	"github.com/san-kum/nrsur/internal/analysis"
	"github.com/san-kum/nrsur/internal/dynamics"
	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/harmonics"
	"github.com/san-kum/nrsur/internal/quaternion"
	"github.com/san-kum/nrsur/internal/spline"
)

// Options are the precessing evaluation options.
type Options struct {
	// InitPhase is the orbital phase at the reference time.
	InitPhase float64
	// InitQuat is the coprecessing frame at the reference time; nil means
	// the identity, in which case the input spins are inertial.
	InitQuat *[4]float64
	// ReturnDynamics adds the inertial spins, the frame quaternion and the
	// orbital phase on the output grid to the result.
	ReturnDynamics bool
	// UseLALConventions rotates the input spins about z by InitPhase and
	// adds pi/2 to Phi, matching LALSimulation's ChooseTDWaveform.
	UseLALConventions bool
}

// Request is one waveform evaluation.
type Request struct {
	Params dynamo.Params
	// EllMax defaults to min(DefaultEllMax, model ellMax) when zero.
	EllMax int
	// At most one of TRef and FRef. FRef is a gravitational-wave frequency,
	// omega/pi.
	TRef *float64
	FRef *float64
	// At most one of Times and Dt. With neither the waveform is returned on
	// the coorbital grid.
	Times []float64
	Dt    float64
	// Theta and Phi, when both set, sum the modes into the strain seen
	// along that direction.
	Theta *float64
	Phi   *float64
	Options
}

// Mode is an (ell, m) pair.
type Mode struct {
	Ell, M int
}

// Dynamics is the inertial-frame dynamics on the output grid.
type Dynamics struct {
	Quat  quaternion.Series
	Phase []float64
	ChiA  [][3]float64
	ChiB  [][3]float64
}

// Waveform is the result of Evaluate.
type Waveform struct {
	Times  []float64
	EllMax int
	Modes  map[Mode][]complex128
	// Strain is set when the request gives Theta and Phi.
	Strain   []complex128
	Dynamics *Dynamics
}

// Stacked returns the modes in the order (2,-2) ... (EllMax, EllMax).
func (w *Waveform) Stacked() [][]complex128 {
	out := make([][]complex128, 0, quaternion.NumModes(w.EllMax))
	for ell := 2; ell <= w.EllMax; ell++ {
		for m := -ell; m <= ell; m++ {
			out = append(out, w.Modes[Mode{ell, m}])
		}
	}
	return out
}

func (m *Model) ellMax(req Request) int {
	if req.EllMax != 0 {
		return req.EllMax
	}
	return min(DefaultEllMax, m.coorb.EllMax())
}

func (m *Model) validate(req Request) error {
	if req.TRef != nil && req.FRef != nil {
		return dynamo.Domainf("surrogate", "specify at most one of the reference time and the reference frequency")
	}
	if req.Times != nil && req.Dt != 0 {
		return dynamo.Domainf("surrogate", "specify at most one of output times and dt")
	}
	if req.Dt < 0 || math.IsNaN(req.Dt) {
		return dynamo.Domainf("surrogate", "dt must be positive, got %v", req.Dt)
	}
	if req.Dt > 0 {
		span := m.tCoorb[len(m.tCoorb)-1] - m.tCoorb[0]
		if steps := math.Ceil(span / req.Dt); math.IsInf(steps, 0) || steps > MaxSamples {
			return dynamo.Domainf("surrogate", "dt %v gives more than %d output samples", req.Dt, MaxSamples)
		}
	}
	if (req.Theta == nil) != (req.Phi == nil) {
		return dynamo.Domainf("surrogate", "specify both or neither of theta and phi")
	}
	if req.FRef != nil && *req.FRef <= 0 {
		return dynamo.Domainf("surrogate", "reference frequency must be positive, got %v", *req.FRef)
	}
	if n := len(req.Times); n > 0 {
		t0, tf := m.tCoorb[0], m.tCoorb[len(m.tCoorb)-1]
		if req.Times[0] < t0 {
			return dynamo.Domainf("surrogate", "output times start at %v, before the model start %v", req.Times[0], t0)
		}
		if req.Times[n-1] > tf {
			return dynamo.Domainf("surrogate", "output times end at %v, after the model end %v", req.Times[n-1], tf)
		}
	}
	return nil
}

// DynamicsInput converts a request into dynamics initial data, applying the
// LAL spin convention.
func (req Request) DynamicsInput() dynamics.Input {
	p := req.Params
	if req.UseLALConventions {
		p.ChiA = rotateSpin(p.ChiA, -req.InitPhase)
		p.ChiB = rotateSpin(p.ChiB, -req.InitPhase)
	}
	in := dynamics.Input{
		Params:    p,
		InitPhase: req.InitPhase,
		InitQuat:  req.InitQuat,
		TRef:      req.TRef,
	}
	if req.FRef != nil {
		omega := *req.FRef * math.Pi
		in.OmegaRef = &omega
	}
	return in
}

// Evaluate computes the inertial-frame waveform modes for req.
func (m *Model) Evaluate(req Request) (*Waveform, error) {
	if err := m.validate(req); err != nil {
		return nil, err
	}
	ellMax := m.ellMax(req)
	if ellMax < 2 || ellMax > m.coorb.EllMax() {
		return nil, dynamo.Domainf("surrogate", "ellMax %d outside [2, %d]", ellMax, m.coorb.EllMax())
	}

	in := req.DynamicsInput()
	normA := dynamo.Norm3(in.Params.ChiA)
	normB := dynamo.Norm3(in.Params.ChiB)

	dyn, err := m.dyn.Evaluate(in)
	if err != nil {
		return nil, err
	}

	// Resample before moving to the coorbital frame: coorbital spins
	// oscillate on the orbital timescale.
	tc := m.tCoorb
	chiA, err := spline.Vectors(m.tds, dyn.ChiA, tc)
	if err != nil {
		return nil, err
	}
	chiB, err := spline.Vectors(m.tds, dyn.ChiB, tc)
	if err != nil {
		return nil, err
	}
	normalizeSpins(chiA, normA)
	normalizeSpins(chiB, normB)

	phase, err := spline.Interpolate(m.tds, dyn.Phase, tc)
	if err != nil {
		return nil, err
	}
	quat, err := resampleQuat(m.tds, dyn.Quat, tc)
	if err != nil {
		return nil, err
	}

	chiACoorb := make([][3]float64, len(tc))
	chiBCoorb := make([][3]float64, len(tc))
	for i := range tc {
		chiACoorb[i] = rotateSpin(chiA[i], phase[i])
		chiBCoorb[i] = rotateSpin(chiB[i], phase[i])
	}

	hCoorb, err := m.coorb.Evaluate(req.Params.MassRatio, chiACoorb, chiBCoorb, ellMax)
	if err != nil {
		return nil, err
	}

	orbit := make(quaternion.Series, len(tc))
	for i := range tc {
		orbit[i] = quaternion.ZRotation(phase[i])
	}
	h, err := quaternion.RotateModes(quaternion.MultiplySeries(quat, orbit), hCoorb)
	if err != nil {
		return nil, err
	}

	var times []float64
	resample := false
	switch {
	case req.Dt > 0:
		t0, tf := tc[0], tc[len(tc)-1]
		n := int(math.Ceil((tf - t0) / req.Dt))
		times = make([]float64, n)
		for k := range times {
			times[k] = t0 + req.Dt*float64(k)
		}
		resample = true
	case req.Times != nil:
		times = append([]float64(nil), req.Times...)
		resample = true
	default:
		times = append([]float64(nil), tc...)
	}

	if resample {
		for i := range h {
			if h[i], err = spline.Complex(tc, h[i], times); err != nil {
				return nil, err
			}
		}
	}

	w := &Waveform{
		Times:  times,
		EllMax: ellMax,
		Modes:  make(map[Mode][]complex128, len(h)),
	}
	i := 0
	for ell := 2; ell <= ellMax; ell++ {
		for mm := -ell; mm <= ell; mm++ {
			w.Modes[Mode{ell, mm}] = h[i]
			i++
		}
	}

	if req.Theta != nil {
		phi := *req.Phi
		if req.UseLALConventions {
			phi += 0.5 * math.Pi
		}
		w.Strain = harmonics.ModeSum(h, ellMax, *req.Theta, phi)
	}

	if req.ReturnDynamics {
		d := &Dynamics{
			Quat:  quat,
			Phase: phase,
			ChiA:  quaternion.RotateVectors(quat, chiA),
			ChiB:  quaternion.RotateVectors(quat, chiB),
		}
		if resample {
			if d, err = resampleDynamics(tc, d, times, normA, normB); err != nil {
				return nil, err
			}
		}
		w.Dynamics = d
	}
	return w, nil
}

// TimeAtFrequency returns the time at which the gravitational-wave
// frequency omega/pi of the dynamics for req first reaches freq.
func (m *Model) TimeAtFrequency(freq float64, req Request) (float64, error) {
	if req.TRef != nil && req.FRef != nil {
		return 0, dynamo.Domainf("surrogate", "specify at most one of the reference time and the reference frequency")
	}
	dyn, err := m.dyn.Evaluate(req.DynamicsInput())
	if err != nil {
		return 0, err
	}
	omega, err := analysis.Gradient(dyn.Phase, m.tds)
	if err != nil {
		return 0, err
	}
	freqs := make([]float64, len(omega))
	for i, w := range omega {
		freqs[i] = w / math.Pi
	}
	return analysis.Crossing(m.tds, freqs, freq)
}

// rotateSpin rotates the in-plane components by -phase, taking
// coprecessing-frame spins to the coorbital frame.
func rotateSpin(chi [3]float64, phase float64) [3]float64 {
	sp, cp := math.Sincos(phase)
	return [3]float64{
		chi[0]*cp + chi[1]*sp,
		chi[1]*cp - chi[0]*sp,
		chi[2],
	}
}

// normalizeSpins rescales every sample to norm when norm is positive.
func normalizeSpins(chi [][3]float64, norm float64) {
	if !(norm > 0) {
		return
	}
	for i, v := range chi {
		n := dynamo.Norm3(v)
		if n == 0 {
			continue
		}
		f := norm / n
		chi[i] = [3]float64{v[0] * f, v[1] * f, v[2] * f}
	}
}

func resampleQuat(xs []float64, qs quaternion.Series, at []float64) (quaternion.Series, error) {
	comps := make([][]float64, 4)
	for c := range comps {
		comps[c] = make([]float64, len(qs))
		for i, q := range qs {
			comps[c][i] = q[c]
		}
	}
	res, err := spline.Many(xs, comps, at)
	if err != nil {
		return nil, err
	}
	out := make(quaternion.Series, len(at))
	for i := range out {
		out[i] = quaternion.Quat{res[0][i], res[1][i], res[2][i], res[3][i]}
	}
	out.Normalize()
	return out, nil
}

func resampleDynamics(xs []float64, d *Dynamics, at []float64, normA, normB float64) (*Dynamics, error) {
	chiA, err := spline.Vectors(xs, d.ChiA, at)
	if err != nil {
		return nil, err
	}
	chiB, err := spline.Vectors(xs, d.ChiB, at)
	if err != nil {
		return nil, err
	}
	normalizeSpins(chiA, normA)
	normalizeSpins(chiB, normB)

	phase, err := spline.Interpolate(xs, d.Phase, at)
	if err != nil {
		return nil, err
	}
	quat, err := resampleQuat(xs, d.Quat, at)
	if err != nil {
		return nil, err
	}
	return &Dynamics{Quat: quat, Phase: phase, ChiA: chiA, ChiB: chiB}, nil
}
