package datasource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/nrsur/internal/dynamo"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Put("t_ds", Vector([]float64{0, 1, 2})); err != nil {
		t.Fatalf("put: %v", err)
	}

	a, err := m.Array(ctx, "t_ds")
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(a.Data) != 3 || a.Data[2] != 2 {
		t.Errorf("unexpected data %v", a.Data)
	}

	ok, err := m.Has(ctx, "t_coorb")
	if err != nil || ok {
		t.Errorf("Has(t_coorb) = %v, %v", ok, err)
	}

	if _, err := m.Array(ctx, "t_coorb"); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for missing array, got %v", err)
	}
}

func TestMemoryRejectsBadShape(t *testing.T) {
	m := NewMemory()
	err := m.Put("bad", Array{Shape: []int{2, 2}, Data: []float64{1, 2, 3}})
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.sqlite")

	store := NewSQLite(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	mem := NewMemory()
	_ = mem.Put("t_coorb", Vector([]float64{-1.5, 0, 2.25}))
	_ = mem.Put(ModeGroup(2, 2, "Re+")+"/EIBasis", Matrix(2, 3, []float64{1, 0, 0, 0, 1, 0.5}))
	if err := store.Import(ctx, mem); err != nil {
		t.Fatalf("import: %v", err)
	}

	a, err := store.Array(ctx, "hCoorb_2_2_Re+/EIBasis")
	if err != nil {
		t.Fatalf("array: %v", err)
	}
	rows, cols := a.Dims()
	if rows != 2 || cols != 3 || a.Data[5] != 0.5 {
		t.Errorf("unexpected array %+v", a)
	}

	if err := store.Put(ctx, "t_coorb", Vector([]float64{7})); err != nil {
		t.Fatalf("put: %v", err)
	}
	a, err = store.Array(ctx, "t_coorb")
	if err != nil || len(a.Data) != 1 || a.Data[0] != 7 {
		t.Errorf("overwrite failed: %+v, %v", a, err)
	}

	names, err := store.Names(ctx)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %v", names)
	}

	if _, err := store.Array(ctx, "t_ds"); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for missing array, got %v", err)
	}
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open(context.Background(), "hdf5", "x"); err == nil {
		t.Fatal("expected unsupported kind error")
	}
}
