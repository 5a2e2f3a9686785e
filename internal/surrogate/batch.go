package surrogate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EvaluateBatch evaluates independent requests on at most limit goroutines
// (no limit when limit <= 0). Results keep the order of reqs. The first
// failure cancels the requests not yet started.
func (m *Model) EvaluateBatch(ctx context.Context, reqs []Request, limit int) ([]*Waveform, error) {
	out := make([]*Waveform, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range reqs {
		i := i // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w, err := m.Evaluate(reqs[i])
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
