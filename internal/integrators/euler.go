package integrators

import "github.com/san-kum/nrsur/internal/dynamo"

// Euler returns y + h*k.
func Euler(y, k dynamo.State, h float64) dynamo.State {
	return y.AddScaled(h, k)
}
