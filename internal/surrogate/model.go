// Package surrogate assembles the full precessing waveform: it integrates
// the dynamics, evaluates the coorbital modes with the spins carried into
// the coorbital frame, and rotates the modes to the inertial frame.
package surrogate

import (
	"context"

	"github.com/san-kum/nrsur/internal/coorb"
	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/dynamics"
	"github.com/san-kum/nrsur/internal/dynamo"
)

// DefaultEllMax is used when a request leaves EllMax unset and the model
// supports it.
const DefaultEllMax = 4

// MaxSamples bounds the length of a resampled output grid.
const MaxSamples = 1 << 24

// Model is a loaded surrogate. It is read-only after Load and may be shared
// by concurrent evaluations.
type Model struct {
	dyn    *dynamics.Surrogate
	coorb  *coorb.Surrogate
	tds    []float64
	tCoorb []float64
}

// New checks that the dynamics grid covers the coorbital grid.
func New(dyn *dynamics.Surrogate, co *coorb.Surrogate) (*Model, error) {
	tds := dyn.Times()
	tc := co.Times()
	if len(tc) == 0 {
		return nil, dynamo.Configf("surrogate", "empty coorbital grid")
	}
	if tc[0] < tds[0] || tc[len(tc)-1] > tds[len(tds)-1] {
		return nil, dynamo.Configf("surrogate", "coorbital grid [%v, %v] not covered by dynamics grid [%v, %v]",
			tc[0], tc[len(tc)-1], tds[0], tds[len(tds)-1])
	}
	return &Model{dyn: dyn, coorb: co, tds: tds, tCoorb: tc}, nil
}

// Load reads both surrogates from src.
func Load(ctx context.Context, src datasource.Source) (*Model, error) {
	dyn, err := dynamics.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	co, err := coorb.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return New(dyn, co)
}

// DynamicsTimes is the grid on which Dynamics samples its result.
func (m *Model) DynamicsTimes() []float64 {
	return append([]float64(nil), m.tds...)
}

// CoorbitalTimes is the native output grid of Evaluate.
func (m *Model) CoorbitalTimes() []float64 {
	return append([]float64(nil), m.tCoorb...)
}

func (m *Model) EllMax() int {
	return m.coorb.EllMax()
}

// Dynamics evaluates the coprecessing-frame dynamics on DynamicsTimes.
func (m *Model) Dynamics(in dynamics.Input) (*dynamics.Result, error) {
	return m.dyn.Evaluate(in)
}

// CoorbitalWaveform evaluates the stacked coorbital modes on
// CoorbitalTimes from coorbital-frame spins sampled on the same grid.
func (m *Model) CoorbitalWaveform(q float64, chiA, chiB [][3]float64, ellMax int) ([][]complex128, error) {
	return m.coorb.Evaluate(q, chiA, chiB, ellMax)
}
