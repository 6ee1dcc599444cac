package core

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultEvaluatorConcurrency bounds Sweep when no limit is configured.
const DefaultEvaluatorConcurrency = 8

// IsLowStock is the low-stock rule: strictly below the threshold.
func IsLowStock(quantity, threshold int) bool {
	return quantity < threshold
}

// FlagWriter is the only store capability the Evaluator needs.
type FlagWriter interface {
	SetLowStock(ctx context.Context, id string, low bool) error
}

// Evaluator keeps IsLowStock consistent with quantity and threshold.
type Evaluator struct {
	store FlagWriter
	limit int
}

// NewEvaluator returns an Evaluator running at most limit reconciliations
// concurrently during a Sweep.
func NewEvaluator(store FlagWriter, limit int) *Evaluator {
	if limit <= 0 {
		limit = DefaultEvaluatorConcurrency
	}
	return &Evaluator{store: store, limit: limit}
}

// Evaluate recomputes the flag for item and persists it only when it
// differs from the stored value. On success item reflects the stored
// state. The returned bool reports whether a write happened.
func (e *Evaluator) Evaluate(ctx context.Context, item *Item) (bool, error) {
	want := IsLowStock(item.Quantity, item.LowStockThreshold)
	if want == item.IsLowStock {
		return false, nil
	}

	if err := e.store.SetLowStock(ctx, item.ID, want); err != nil {
		return false, fmt.Errorf("set low stock on %s: %w", item.ID, err)
	}
	item.IsLowStock = want

	if want {
		slog.Debug("item flagged low stock", "item_id", item.ID, "quantity", item.Quantity, "threshold", item.LowStockThreshold)
	}
	return true, nil
}

// Sweep evaluates every item, updating the slice in place. A failure on one
// item never stops the others; failures are returned in input order.
func (e *Evaluator) Sweep(ctx context.Context, items []Item) []SyncFailure {
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i := range items {
		i := i // per-iteration copy; module builds with go 1.21 loop semantics
		g.Go(func() error {
			_, errs[i] = e.Evaluate(ctx, &items[i])
			return nil
		})
	}
	_ = g.Wait()

	failures := []SyncFailure{}
	for i, err := range errs {
		if err == nil {
			continue
		}
		failures = append(failures, SyncFailure{
			ItemID: items[i].ID,
			Name:   items[i].Name,
			Error:  err.Error(),
		})
	}
	return failures
}
