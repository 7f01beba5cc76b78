package seeder

import (
	"context"
	"fmt"

	"github.com/seedbed/seedbed/pkg/document"
)

// alreadySeeded implements the idempotency guard. Fixed-dataset mode seeds
// only an empty collection; generated mode supports incremental top-ups,
// treating the collection as seeded once it holds MinCount records.
func (e *Engine) alreadySeeded(ctx context.Context, h document.Handle, mode Mode, minCount int) (bool, error) {
	count, err := e.store.Count(ctx, h)
	if err != nil {
		return false, fmt.Errorf("failed to count %s: %w", h.Name, err)
	}

	if mode == ModeGenerated {
		return count >= minCount, nil
	}
	return count > 0, nil
}
