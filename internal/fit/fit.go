// Package fit evaluates the multivariate polynomial fits that parametrize
// every surrogate quantity.
//
// A fit maps the seven physical parameters (q, chiAx, chiAy, chiAz, chiBx,
// chiBy, chiBz) to a scalar. Before evaluation the parameters are remapped
// by [MapParams] to (log q, chiAx, chiAy, chiHat, chiBx, chiBy, chi_a), and
// log q is further rescaled affinely into [-1, 1].
package fit

import (
	"context"
	"math"
	"strconv"

	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/dynamo"
)

const (
	// QOffset and QSlope rescale log q from [-0.01, log(4.01)] to [-1, 1].
	QOffset = -0.9857019407834238
	QSlope  = 1.4298059216576398

	MaxQOrder   = 4
	MaxChiOrder = 2

	// NumParams is the number of fit inputs.
	NumParams = 7
)

// Fit is one scalar polynomial fit: Sum_i Coefs[i] * Prod_j x_j^Orders[i][j].
type Fit struct {
	Orders [][NumParams]int
	Coefs  []float64
}

// New validates the basis-function orders against the supported maxima.
func New(orders [][NumParams]int, coefs []float64) (*Fit, error) {
	if len(orders) != len(coefs) {
		return nil, dynamo.Configf("fit", "%d basis functions but %d coefficients", len(orders), len(coefs))
	}
	for i, o := range orders {
		if o[0] < 0 || o[0] > MaxQOrder {
			return nil, dynamo.Configf("fit", "basis function %d has mass-ratio order %d outside [0, %d]", i, o[0], MaxQOrder)
		}
		for j := 1; j < NumParams; j++ {
			if o[j] < 0 || o[j] > MaxChiOrder {
				return nil, dynamo.Configf("fit", "basis function %d has spin order %d outside [0, %d]", i, o[j], MaxChiOrder)
			}
		}
	}
	return &Fit{Orders: orders, Coefs: coefs}, nil
}

// FromArrays builds a fit from the stored bfOrders (n x 7) and coefs (n)
// arrays.
func FromArrays(bfOrders, coefs datasource.Array) (*Fit, error) {
	rows, cols := bfOrders.Dims()
	if cols != NumParams {
		return nil, dynamo.Configf("fit", "bfOrders has %d columns, want %d", cols, NumParams)
	}
	orders := make([][NumParams]int, rows)
	for i := range orders {
		for j := 0; j < NumParams; j++ {
			v := bfOrders.Data[i*NumParams+j]
			if v != math.Trunc(v) {
				return nil, dynamo.Configf("fit", "non-integer basis order %v", v)
			}
			orders[i][j] = int(v)
		}
	}
	return New(orders, append([]float64(nil), coefs.Data...))
}

// Load reads "<prefix>_bfOrders" and "<prefix>_coefs" from src.
func Load(ctx context.Context, src datasource.Source, prefix string) (*Fit, error) {
	orders, err := src.Array(ctx, prefix+"_bfOrders")
	if err != nil {
		return nil, err
	}
	coefs, err := src.Array(ctx, prefix+"_coefs")
	if err != nil {
		return nil, err
	}
	return FromArrays(orders, coefs)
}

// MapParams converts [q, chiAx, chiAy, chiAz, chiBx, chiBy, chiBz] into the
// fit parametrization [log q, chiAx, chiAy, chiHat, chiBx, chiBy, chi_a].
// chiHat is the effective aligned spin of Ajith et al. and
// chi_a = (chiAz - chiBz)/2; both lie in [-1, 1].
func MapParams(x [NumParams]float64) [NumParams]float64 {
	q := x[0]
	chi1z := x[3]
	chi2z := x[6]
	eta := q / ((1 + q) * (1 + q))
	chiWtAvg := (q*chi1z + chi2z) / (1 + q)
	chiHat := (chiWtAvg - 38*eta/113*(chi1z+chi2z)) / (1 - 76*eta/113)
	chiA := (chi1z - chi2z) / 2

	x[0] = math.Log(q)
	x[3] = chiHat
	x[6] = chiA
	return x
}

// Eval evaluates the fit at parameters already mapped by MapParams.
func (f *Fit) Eval(x [NumParams]float64) float64 {
	var qPows [MaxQOrder + 1]float64
	qPows[0] = 1
	qr := QOffset + QSlope*x[0]
	for i := 1; i <= MaxQOrder; i++ {
		qPows[i] = qPows[i-1] * qr
	}

	var chiPows [NumParams - 1][MaxChiOrder + 1]float64
	for j := 1; j < NumParams; j++ {
		chiPows[j-1][0] = 1
		for i := 1; i <= MaxChiOrder; i++ {
			chiPows[j-1][i] = chiPows[j-1][i-1] * x[j]
		}
	}

	res := 0.0
	for i, o := range f.Orders {
		v := f.Coefs[i] * qPows[o[0]]
		for j := 1; j < NumParams; j++ {
			v *= chiPows[j-1][o[j]]
		}
		res += v
	}
	return res
}

// Vector is a vector-valued fit whose components are independent scalar
// fits.
type Vector []*Fit

func (v Vector) Eval(x [NumParams]float64) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = f.Eval(x)
	}
	return out
}

// LoadVector reads the components "<prefix>_<i>" for i < size.
func LoadVector(ctx context.Context, src datasource.Source, prefix string, size int) (Vector, error) {
	v := make(Vector, size)
	for i := range v {
		f, err := Load(ctx, src, prefix+"_"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

