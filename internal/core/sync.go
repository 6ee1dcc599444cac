package core

// sync.go applies batches of item descriptors.
//
// Every batch runs in two phases:
//
//  1. Write: descriptors are applied to the store. Any store error here
//     aborts the call with a *StoreError; records already written stay
//     written and no sweep runs.
//  2. Sweep: the Evaluator reconciles IsLowStock on every affected record.
//     Per-record failures are collected, never fatal.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SyncEngine applies batches against an ItemStore.
type SyncEngine struct {
	store     ItemStore
	evaluator *Evaluator
	defaults  Item
}

// NewSyncEngine builds an engine that inserts missing records with
// defaultThreshold as their low-stock threshold.
func NewSyncEngine(store ItemStore, evaluator *Evaluator, defaultThreshold int) *SyncEngine {
	return &SyncEngine{
		store:     store,
		evaluator: evaluator,
		defaults:  Item{LowStockThreshold: defaultThreshold},
	}
}

// Defaults returns the field values a record starts from before a
// descriptor is applied to it.
func (e *SyncEngine) Defaults() Item {
	return e.defaults
}

// Create inserts fully-formed records and sweeps them.
func (e *SyncEngine) Create(ctx context.Context, items []Item) (*SyncResult, error) {
	start := time.Now()

	created, err := e.store.InsertItems(ctx, items)
	if err != nil {
		return nil, &StoreError{Op: "insert items", Err: err}
	}

	result := &SyncResult{
		Mode:    SyncCreate,
		Created: len(created),
		Items:   make([]*Item, len(created)),
	}
	result.Failures = e.evaluator.Sweep(ctx, created)
	for i := range created {
		result.Items[i] = &created[i]
	}

	e.log(ctx, result, start)
	return result, nil
}

// SyncByID applies each update to the record with the matching id.
// Unknown ids are skipped and leave a nil slot in Items.
func (e *SyncEngine) SyncByID(ctx context.Context, updates []ItemUpdate) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{
		Mode:  SyncByID,
		Items: make([]*Item, len(updates)),
	}

	affected := make([]Item, 0, len(updates))
	slots := make([]int, 0, len(updates))
	for i, u := range updates {
		item, err := e.store.UpdateItem(ctx, u.ID, u.Update)
		if errors.Is(err, ErrNotFound) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, &StoreError{Op: fmt.Sprintf("update item %s", u.ID), Err: err}
		}
		affected = append(affected, item)
		slots = append(slots, i)
	}
	result.Updated = len(affected)

	result.Failures = e.evaluator.Sweep(ctx, affected)
	for k, i := range slots {
		result.Items[i] = &affected[k]
	}

	e.log(ctx, result, start)
	return result, nil
}

// SyncByName upserts each descriptor by exact name, then re-reads every
// record carrying one of the batch's names and sweeps them. Descriptors
// without a name are rejected before anything is written.
func (e *SyncEngine) SyncByName(ctx context.Context, batch []ItemPatch) (*SyncResult, error) {
	start := time.Now()

	var verrs ValidationErrors
	for i, p := range batch {
		if p.Name == nil || *p.Name == "" {
			verrs.Add(fmt.Sprintf("items[%d].name", i), "name is required")
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	result := &SyncResult{Mode: SyncByName, Items: []*Item{}, Failures: []SyncFailure{}}
	if len(batch) == 0 {
		return result, nil
	}

	counts, err := e.store.UpsertItemsByName(ctx, batch, e.defaults)
	if err != nil {
		return nil, &StoreError{Op: "upsert items by name", Err: err}
	}
	result.Created = counts.Created
	result.Updated = counts.Updated

	affected, err := e.store.ListItems(ctx, ItemFilter{Names: uniqueNames(batch)})
	if err != nil {
		return nil, &StoreError{Op: "reload synced items", Err: err}
	}

	result.Failures = e.evaluator.Sweep(ctx, affected)
	result.Items = make([]*Item, len(affected))
	for i := range affected {
		result.Items[i] = &affected[i]
	}

	e.log(ctx, result, start)
	return result, nil
}

func (e *SyncEngine) log(ctx context.Context, r *SyncResult, start time.Time) {
	level := slog.LevelInfo
	if r.Partial() {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "sync completed",
		"mode", r.Mode,
		"created", r.Created,
		"updated", r.Updated,
		"skipped", r.Skipped,
		"failures", len(r.Failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func uniqueNames(batch []ItemPatch) []string {
	seen := make(map[string]struct{}, len(batch))
	names := make([]string, 0, len(batch))
	for _, p := range batch {
		if _, ok := seen[*p.Name]; ok {
			continue
		}
		seen[*p.Name] = struct{}{}
		names = append(names, *p.Name)
	}
	return names
}
