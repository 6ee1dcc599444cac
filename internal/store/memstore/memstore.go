// Package memstore is an in-process Record Store. It backs STORE_DRIVER=memory
// and every test that needs a real store without a database.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

// Store keeps records in insertion order behind a single mutex.
type Store struct {
	mu sync.RWMutex

	items     map[string]*core.Item
	itemOrder []string

	suppliers     map[string]*core.Supplier
	supplierOrder []string

	now func() time.Time
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		items:     make(map[string]*core.Item),
		suppliers: make(map[string]*core.Supplier),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

// ----------------------------------------------------------------------------
// Items
// ----------------------------------------------------------------------------

func (s *Store) InsertItems(ctx context.Context, items []core.Item) ([]core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Item, len(items))
	for i, it := range items {
		out[i] = s.insertLocked(it)
	}
	return out, nil
}

func (s *Store) insertLocked(it core.Item) core.Item {
	now := s.now()
	it.ID = uuid.NewString()
	it.CreatedAt = now
	it.UpdatedAt = now

	stored := it
	s.items[it.ID] = &stored
	s.itemOrder = append(s.itemOrder, it.ID)
	return it
}

func (s *Store) GetItem(ctx context.Context, id string) (core.Item, error) {
	if err := ctx.Err(); err != nil {
		return core.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return core.Item{}, core.ErrNotFound
	}
	return *it, nil
}

func (s *Store) ListItems(ctx context.Context, filter core.ItemFilter) ([]core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		it := s.items[id]
		if filter.LowStockOnly && !it.IsLowStock {
			continue
		}
		if filter.Names != nil && !slices.Contains(filter.Names, it.Name) {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, patch core.ItemPatch) (core.Item, error) {
	if err := ctx.Err(); err != nil {
		return core.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return core.Item{}, core.ErrNotFound
	}
	patch.Apply(it)
	it.UpdatedAt = s.now()
	return *it, nil
}

func (s *Store) SetLowStock(ctx context.Context, id string, low bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return core.ErrNotFound
	}
	it.IsLowStock = low
	it.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return core.ErrNotFound
	}
	s.removeItemsLocked(map[string]struct{}{id: {}})
	return nil
}

func (s *Store) DeleteItems(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			doomed[id] = struct{}{}
		}
	}
	s.removeItemsLocked(doomed)
	return int64(len(doomed)), nil
}

func (s *Store) removeItemsLocked(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	for id := range ids {
		delete(s.items, id)
	}
	s.itemOrder = slices.DeleteFunc(s.itemOrder, func(id string) bool {
		_, gone := ids[id]
		return gone
	})
}

// UpsertItemsByName applies descriptors in order, so a name repeated in one
// batch is inserted by its first descriptor and updated by the rest.
func (s *Store) UpsertItemsByName(ctx context.Context, batch []core.ItemPatch, defaults core.Item) (core.UpsertResult, error) {
	var res core.UpsertResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range batch {
		matched := false
		for _, id := range s.itemOrder {
			it := s.items[id]
			if it.Name != *p.Name {
				continue
			}
			p.Apply(it)
			it.UpdatedAt = s.now()
			matched = true
		}
		if matched {
			res.Updated++
			continue
		}

		it := defaults
		p.Apply(&it)
		it.IsLowStock = false
		s.insertLocked(it)
		res.Created++
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Suppliers
// ----------------------------------------------------------------------------

func (s *Store) InsertSupplier(ctx context.Context, sup core.Supplier) (core.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return core.Supplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sup.ID = uuid.NewString()
	sup.CreatedAt = now
	sup.UpdatedAt = now

	stored := sup
	s.suppliers[sup.ID] = &stored
	s.supplierOrder = append(s.supplierOrder, sup.ID)
	return sup, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (core.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return core.Supplier{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return core.Supplier{}, core.ErrNotFound
	}
	return *sup, nil
}

func (s *Store) GetSuppliers(ctx context.Context, ids []string) (map[string]core.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]core.Supplier, len(ids))
	for _, id := range ids {
		if sup, ok := s.suppliers[id]; ok {
			out[id] = *sup
		}
	}
	return out, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Supplier, 0, len(s.supplierOrder))
	for _, id := range s.supplierOrder {
		out = append(out, *s.suppliers[id])
	}
	return out, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, id string, patch core.SupplierPatch) (core.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return core.Supplier{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return core.Supplier{}, core.ErrNotFound
	}
	patch.Apply(sup)
	sup.UpdatedAt = s.now()
	return *sup, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.suppliers, id)
	s.supplierOrder = slices.DeleteFunc(s.supplierOrder, func(sid string) bool { return sid == id })
	return nil
}
