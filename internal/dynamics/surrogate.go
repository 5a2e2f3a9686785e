// Package dynamics evaluates the dynamics surrogate: the coprecessing frame
// quaternion, the orbital phase and the two spins, integrated with AB4 over
// a fixed time grid from reference-time initial data.
//
// The stored grid t has L nodes. Its first six intervals come in three
// equal pairs; the midpoints are used only by the RK4 bootstrap. Dropping
// them gives the output grid tds = t[0], t[2], t[4], t[6], ..., of length
// L-3.
package dynamics

import (
	"context"

	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/fit"
)

// halfSteps is the number of grid intervals split in two for RK4.
const halfSteps = 3

// NodeFits holds every fit evaluated at one grid node.
type NodeFits struct {
	Omega    *fit.Fit
	OmegaOrb fit.Vector // 2 components, coorbital frame
	ChiADot  fit.Vector // 3 components, coorbital frame
	ChiBDot  fit.Vector // 3 components, coorbital frame
}

// Surrogate is a loaded dynamics surrogate. It is immutable and safe for
// concurrent use.
type Surrogate struct {
	t     []float64
	diffT []float64
	tds   []float64
	dtds  []float64
	nodes []NodeFits
}

// New validates the grid and builds a surrogate from per-node fits.
func New(t []float64, nodes []NodeFits) (*Surrogate, error) {
	if len(t) != len(nodes) {
		return nil, dynamo.Configf("dynamics", "%d grid nodes but %d node fits", len(t), len(nodes))
	}
	// 3 RK4 steps plus at least 4 AB4 nodes on each side of the bootstrap
	if len(t) < 2*halfSteps+4 {
		return nil, dynamo.Configf("dynamics", "grid has %d nodes, need at least %d", len(t), 2*halfSteps+4)
	}

	diffT := make([]float64, len(t)-1)
	for i := range diffT {
		diffT[i] = t[i+1] - t[i]
		if !(diffT[i] > 0) {
			return nil, dynamo.Configf("dynamics", "grid not strictly increasing at node %d", i+1)
		}
	}
	for i := 0; i < halfSteps; i++ {
		if diffT[2*i] != diffT[2*i+1] {
			return nil, dynamo.Preconditionf("dynamics",
				"RK4 bootstrap needs equal half steps: interval %d is %v, interval %d is %v",
				2*i, diffT[2*i], 2*i+1, diffT[2*i+1])
		}
	}

	s := &Surrogate{t: t, diffT: diffT, nodes: nodes}
	s.tds = make([]float64, len(t)-halfSteps)
	for j := range s.tds {
		s.tds[j] = t[nodeOf(j)]
	}
	s.dtds = make([]float64, len(s.tds)-1)
	for j := range s.dtds {
		s.dtds[j] = s.tds[j+1] - s.tds[j]
	}
	return s, nil
}

// Load reads t_ds and the ds_node_<i> fit groups.
func Load(ctx context.Context, src datasource.Source) (*Surrogate, error) {
	tArr, err := src.Array(ctx, "t_ds")
	if err != nil {
		return nil, err
	}
	t := append([]float64(nil), tArr.Data...)

	nodes := make([]NodeFits, len(t))
	for i := range nodes {
		g := datasource.NodeGroup(i) + "/"
		n := &nodes[i]
		if n.Omega, err = fit.Load(ctx, src, g+"omega"); err != nil {
			return nil, err
		}
		if n.OmegaOrb, err = fit.LoadVector(ctx, src, g+"omega_orb", 2); err != nil {
			return nil, err
		}
		if n.ChiADot, err = fit.LoadVector(ctx, src, g+"chiA", 3); err != nil {
			return nil, err
		}
		if n.ChiBDot, err = fit.LoadVector(ctx, src, g+"chiB", 3); err != nil {
			return nil, err
		}
	}
	return New(t, nodes)
}

// nodeOf maps an output-grid index to its node on the full grid.
func nodeOf(j int) int {
	if j < halfSteps {
		return 2 * j
	}
	return j + halfSteps
}

// Grid returns the full grid including RK4 midpoints.
func (s *Surrogate) Grid() []float64 {
	return append([]float64(nil), s.t...)
}

// Times returns the output grid on which Evaluate samples the dynamics.
func (s *Surrogate) Times() []float64 {
	return append([]float64(nil), s.tds...)
}
