package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/stockkeep/internal/config"
)

// Service is the entry point for every inventory operation.
type Service struct {
	store         Store
	evaluator     *Evaluator
	sync          *SyncEngine
	imports       *ImportLimiter
	importTimeout time.Duration
}

// NewService wires the evaluator, sync engine and import limiter around store.
func NewService(store Store, cfg *config.Config) *Service {
	evaluator := NewEvaluator(store, cfg.Sync.EvaluatorConcurrency)
	return &Service{
		store:         store,
		evaluator:     evaluator,
		sync:          NewSyncEngine(store, evaluator, cfg.Sync.DefaultThreshold),
		imports:       NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		importTimeout: cfg.Upload.Timeout,
	}
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.WaitForDrain(ctx)
}

// ImportStatus reports import slot usage.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.imports.Status()
}

// ----------------------------------------------------------------------------
// Items
// ----------------------------------------------------------------------------

// CreateItem validates p, stores a new record and evaluates its flag.
func (s *Service) CreateItem(ctx context.Context, p ItemPatch) (Item, error) {
	if err := validateNewItem(p).Err(); err != nil {
		return Item{}, err
	}

	it := s.sync.Defaults()
	p.Apply(&it)

	created, err := s.store.InsertItems(ctx, []Item{it})
	if err != nil {
		return Item{}, &StoreError{Op: "insert item", Err: err}
	}
	item := created[0]

	if _, err := s.evaluator.Evaluate(ctx, &item); err != nil {
		return item, &StoreError{Op: "evaluate low stock", Err: err}
	}
	return item, nil
}

// CreateItems validates the whole batch first; nothing is written if any
// descriptor is invalid.
func (s *Service) CreateItems(ctx context.Context, batch []ItemPatch) (*SyncResult, error) {
	var errs ValidationErrors
	if len(batch) == 0 {
		errs.Add("items", "items must be a non-empty array")
	}
	items := make([]Item, len(batch))
	for i, p := range batch {
		errs = append(errs, validateNewItem(p).Prefixed(fmt.Sprintf("items[%d]", i))...)
		items[i] = s.sync.Defaults()
		p.Apply(&items[i])
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.sync.Create(ctx, items)
}

// GetItem returns one item with its supplier resolved.
func (s *Service) GetItem(ctx context.Context, id string) (ItemView, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return ItemView{}, itemErr("get item", id, err)
	}
	views, err := s.attachSuppliers(ctx, []Item{item})
	if err != nil {
		return ItemView{}, err
	}
	return views[0], nil
}

// ListItems returns every item with its supplier resolved.
func (s *Service) ListItems(ctx context.Context) ([]ItemView, error) {
	return s.listViews(ctx, ItemFilter{})
}

// LowStockItems returns the items whose stored flag is set.
func (s *Service) LowStockItems(ctx context.Context) ([]ItemView, error) {
	return s.listViews(ctx, ItemFilter{LowStockOnly: true})
}

func (s *Service) listViews(ctx context.Context, filter ItemFilter) ([]ItemView, error) {
	items, err := s.store.ListItems(ctx, filter)
	if err != nil {
		return nil, &StoreError{Op: "list items", Err: err}
	}
	return s.attachSuppliers(ctx, items)
}

// UpdateItem applies the present fields of p and re-evaluates the flag.
func (s *Service) UpdateItem(ctx context.Context, id string, p ItemPatch) (Item, error) {
	if err := validatePatch(p).Err(); err != nil {
		return Item{}, err
	}

	item, err := s.store.UpdateItem(ctx, id, p)
	if err != nil {
		return Item{}, itemErr("update item", id, err)
	}

	if _, err := s.evaluator.Evaluate(ctx, &item); err != nil {
		return item, &StoreError{Op: "evaluate low stock", Err: err}
	}
	return item, nil
}

// UpdateItems applies a batch of id-keyed updates.
func (s *Service) UpdateItems(ctx context.Context, updates []ItemUpdate) (*SyncResult, error) {
	var errs ValidationErrors
	if len(updates) == 0 {
		errs.Add("items", "items must be a non-empty array")
	}
	for i, u := range updates {
		prefix := fmt.Sprintf("items[%d]", i)
		if u.ID == "" {
			errs.Add(prefix+".id", "valid item ID is required")
		}
		if u.Update.IsEmpty() {
			errs.Add(prefix+".update", "each update must have update data")
			continue
		}
		errs = append(errs, validatePatch(u.Update).Prefixed(prefix+".update")...)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.sync.SyncByID(ctx, updates)
}

// SetThreshold changes one item's low-stock threshold and re-evaluates it.
// A negative threshold is rejected before the store is touched.
func (s *Service) SetThreshold(ctx context.Context, id string, threshold int) (Item, error) {
	if threshold < 0 {
		return Item{}, ValidationErrors{{
			Field:   "lowStockThreshold",
			Value:   fmt.Sprint(threshold),
			Message: "low stock threshold must be a non-negative integer",
		}}
	}
	return s.UpdateItem(ctx, id, ItemPatch{LowStockThreshold: &threshold})
}

// DeleteItem removes one item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return itemErr("delete item", id, err)
	}
	return nil
}

// DeleteItems removes the listed items that exist and returns how many.
func (s *Service) DeleteItems(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ValidationErrors{{Field: "ids", Message: "ids must be a non-empty array"}}
	}
	n, err := s.store.DeleteItems(ctx, ids)
	if err != nil {
		return 0, &StoreError{Op: "delete items", Err: err}
	}
	return n, nil
}

// ----------------------------------------------------------------------------
// CSV
// ----------------------------------------------------------------------------

// ImportCSV parses r and syncs its rows by name. The whole file is parsed
// before the first write, so a malformed file changes nothing.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*SyncResult, error) {
	if err := s.imports.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.imports.Release()

	if s.importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importTimeout)
		defer cancel()
	}

	batch, err := DecodeItems(r)
	if err != nil {
		return nil, err
	}

	result, err := s.sync.SyncByName(ctx, batch.Descriptors)
	if err != nil {
		return nil, err
	}
	result.RowErrors = batch.RowErrors

	slog.InfoContext(ctx, "csv import finished",
		"bytes", batch.BytesRead,
		"rows", len(batch.Descriptors),
		"skipped_rows", len(batch.RowErrors),
		"created", result.Created,
		"updated", result.Updated,
	)
	return result, nil
}

// ExportCSV writes every item to w.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	views, err := s.ListItems(ctx)
	if err != nil {
		return err
	}
	return EncodeItems(w, views)
}

// ----------------------------------------------------------------------------
// Suppliers
// ----------------------------------------------------------------------------

// CreateSupplier requires a name and contact info.
func (s *Service) CreateSupplier(ctx context.Context, p SupplierPatch) (Supplier, error) {
	if err := validateSupplier(p, true).Err(); err != nil {
		return Supplier{}, err
	}
	var sup Supplier
	p.Apply(&sup)

	created, err := s.store.InsertSupplier(ctx, sup)
	if err != nil {
		return Supplier{}, &StoreError{Op: "insert supplier", Err: err}
	}
	return created, nil
}

func (s *Service) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	sup, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return Supplier{}, supplierErr("get supplier", id, err)
	}
	return sup, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	sups, err := s.store.ListSuppliers(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list suppliers", Err: err}
	}
	return sups, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, p SupplierPatch) (Supplier, error) {
	if err := validateSupplier(p, false).Err(); err != nil {
		return Supplier{}, err
	}
	sup, err := s.store.UpdateSupplier(ctx, id, p)
	if err != nil {
		return Supplier{}, supplierErr("update supplier", id, err)
	}
	return sup, nil
}

// DeleteSupplier removes a supplier. Items referencing it keep the id and
// resolve to no supplier afterwards.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return supplierErr("delete supplier", id, err)
	}
	return nil
}

// attachSuppliers resolves supplier references with one store lookup.
func (s *Service) attachSuppliers(ctx context.Context, items []Item) ([]ItemView, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, it := range items {
		if it.SupplierID == "" {
			continue
		}
		if _, ok := seen[it.SupplierID]; ok {
			continue
		}
		seen[it.SupplierID] = struct{}{}
		ids = append(ids, it.SupplierID)
	}

	var suppliers map[string]Supplier
	if len(ids) > 0 {
		var err error
		suppliers, err = s.store.GetSuppliers(ctx, ids)
		if err != nil {
			return nil, &StoreError{Op: "resolve suppliers", Err: err}
		}
	}

	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i].Item = it
		if sup, ok := suppliers[it.SupplierID]; ok {
			views[i].Supplier = &sup
		}
	}
	return views, nil
}

func itemErr(op, id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return itemNotFound(id)
	}
	return &StoreError{Op: op, Err: err}
}

func supplierErr(op, id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return supplierNotFound(id)
	}
	return &StoreError{Op: op, Err: err}
}
