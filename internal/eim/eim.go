// Package eim evaluates empirical interpolants: a scalar fit at each
// empirical node, projected through a fixed basis onto the dense time grid.
package eim

import (
	"context"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/fit"
)

// Interpolant is one empirically interpolated waveform component.
type Interpolant struct {
	// NodeIndices are positions on the dense grid whose local spins feed
	// the node fits.
	NodeIndices []int
	Fits        []*fit.Fit
	// Basis has one row per node and one column per dense sample.
	Basis *mat.Dense
}

// New checks that the node count agrees with the basis and the fits and
// that every node index lies on a grid of the basis' width.
func New(nodeIndices []int, fits []*fit.Fit, basis *mat.Dense) (*Interpolant, error) {
	rows, cols := basis.Dims()
	if rows != len(nodeIndices) || len(fits) != len(nodeIndices) {
		return nil, dynamo.Configf("eim", "%d nodes, %d fits, basis has %d rows", len(nodeIndices), len(fits), rows)
	}
	for _, ni := range nodeIndices {
		if ni < 0 || ni >= cols {
			return nil, dynamo.Configf("eim", "node index %d outside grid of %d samples", ni, cols)
		}
	}
	return &Interpolant{NodeIndices: nodeIndices, Fits: fits, Basis: basis}, nil
}

// Load reads EIBasis, nodeIndices and nodeModelers/{coefs,bfOrders}_<i>
// from group.
func Load(ctx context.Context, src datasource.Source, group string) (*Interpolant, error) {
	basisArr, err := src.Array(ctx, group+"/EIBasis")
	if err != nil {
		return nil, err
	}
	rows, cols := basisArr.Dims()
	basis := mat.NewDense(rows, cols, append([]float64(nil), basisArr.Data...))

	idxArr, err := src.Array(ctx, group+"/nodeIndices")
	if err != nil {
		return nil, err
	}
	nodes := make([]int, len(idxArr.Data))
	for i, v := range idxArr.Data {
		if v != math.Trunc(v) {
			return nil, dynamo.Configf("eim", "%s: non-integer node index %v", group, v)
		}
		nodes[i] = int(v)
	}

	fits := make([]*fit.Fit, len(nodes))
	for i := range nodes {
		suffix := strconv.Itoa(i)
		orders, err := src.Array(ctx, group+"/nodeModelers/bfOrders_"+suffix)
		if err != nil {
			return nil, err
		}
		coefs, err := src.Array(ctx, group+"/nodeModelers/coefs_"+suffix)
		if err != nil {
			return nil, err
		}
		fits[i], err = fit.FromArrays(orders, coefs)
		if err != nil {
			return nil, err
		}
	}
	return New(nodes, fits, basis)
}

// Len is the number of dense samples produced by Eval.
func (ei *Interpolant) Len() int {
	_, cols := ei.Basis.Dims()
	return cols
}

// Eval evaluates the node fits with the spins found at each node index and
// projects the node values onto the dense grid. chiA and chiB are sampled
// on the dense grid.
func (ei *Interpolant) Eval(q float64, chiA, chiB [][3]float64) []float64 {
	nodes := make([]float64, len(ei.NodeIndices))
	for i, ni := range ei.NodeIndices {
		x := [fit.NumParams]float64{
			q,
			chiA[ni][0], chiA[ni][1], chiA[ni][2],
			chiB[ni][0], chiB[ni][1], chiB[ni][2],
		}
		nodes[i] = ei.Fits[i].Eval(fit.MapParams(x))
	}

	var out mat.VecDense
	out.MulVec(ei.Basis.T(), mat.NewVecDense(len(nodes), nodes))
	return out.RawVector().Data
}
