// Package datasource provides read access to the named arrays a surrogate
// model is built from.
//
// A model archive is a flat namespace of arrays whose names follow the
// group layout of the original container, for example "t_ds",
// "ds_node_12/omega_coefs" or "hCoorb_2_2_Re+/nodeModelers/bfOrders_3".
package datasource

import (
	"context"
	"fmt"

	"github.com/san-kum/nrsur/internal/dynamo"
)

// Array is a dense row-major float64 array.
type Array struct {
	Shape []int
	Data  []float64
}

// Vector wraps a one-dimensional slice.
func Vector(data []float64) Array {
	return Array{Shape: []int{len(data)}, Data: data}
}

// Matrix wraps row-major data with the given dimensions.
func Matrix(rows, cols int, data []float64) Array {
	return Array{Shape: []int{rows, cols}, Data: data}
}

// Len is the total number of elements implied by Shape.
func (a Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Dims returns the row and column counts of a two-dimensional array. A
// vector is treated as a single row.
func (a Array) Dims() (int, int) {
	switch len(a.Shape) {
	case 1:
		return 1, a.Shape[0]
	case 2:
		return a.Shape[0], a.Shape[1]
	default:
		return 0, 0
	}
}

func (a Array) validate(name string) error {
	if len(a.Shape) == 0 || len(a.Shape) > 2 {
		return dynamo.Configf("datasource", "array %q has unsupported rank %d", name, len(a.Shape))
	}
	if a.Len() != len(a.Data) {
		return dynamo.Configf("datasource", "array %q has shape %v but %d elements", name, a.Shape, len(a.Data))
	}
	return nil
}

// Source exposes the arrays of a model archive.
type Source interface {
	Array(ctx context.Context, name string) (Array, error)
	Has(ctx context.Context, name string) (bool, error)
}

// Open returns a Source of the given kind. "memory" yields an empty
// in-memory source; "sqlite" opens the archive at path.
func Open(ctx context.Context, kind, path string) (Source, error) {
	switch kind {
	case "", "sqlite":
		s := NewSQLite(path)
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, dynamo.Configf("datasource", "unsupported source kind %q", kind)
	}
}

// CloseIfSupported closes sources that hold resources.
func CloseIfSupported(src Source) error {
	closer, ok := src.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

func missing(name string) error {
	return dynamo.Configf("datasource", "array %q not found", name)
}

// NodeGroup is the group name holding the dynamics fits of node i.
func NodeGroup(i int) string {
	return fmt.Sprintf("ds_node_%d", i)
}

// ModeGroup is the group name holding one coorbital mode component.
func ModeGroup(ell, m int, variant string) string {
	return fmt.Sprintf("hCoorb_%d_%d_%s", ell, m, variant)
}
