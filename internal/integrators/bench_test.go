package integrators

import (
	"testing"

	"github.com/san-kum/nrsur/internal/dynamo"
)

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	f := func(c float64, y dynamo.State) (dynamo.State, error) {
		return dynamo.State{y[1], -y[0]}, nil
	}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _, _ = integrator.Step(f, x, 0.01)
	}
}

func BenchmarkAB4(b *testing.B) {
	k := dynamo.State{1, 0}
	ab := NewAB4(Forward, [3]dynamo.State{k, k, k}, [3]float64{0.01, 0.01, 0.01})
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = ab.Step(x, dynamo.State{x[1], -x[0]}, 0.01)
	}
}
