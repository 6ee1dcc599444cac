package core

import (
	"context"
	"time"
)

// Item is a stocked product. IsLowStock is derived from Quantity and
// LowStockThreshold and is only ever written by the Evaluator.
type Item struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Quantity          int       `json:"quantity"`
	SupplierID        string    `json:"supplierId"`
	Price             float64   `json:"price"`
	Description       string    `json:"description"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	IsLowStock        bool      `json:"isLowStock"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ItemView is an item with its supplier resolved for reads.
// Supplier is nil when the reference dangles.
type ItemView struct {
	Item
	Supplier *Supplier `json:"supplier"`
}

// Supplier is a vendor referenced by items.
type Supplier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactInfo string    `json:"contactInfo"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemPatch is a partial item descriptor. A nil field is "not present"
// and leaves the stored value untouched.
type ItemPatch struct {
	Name              *string  `json:"name,omitempty"`
	Quantity          *int     `json:"quantity,omitempty"`
	SupplierID        *string  `json:"supplierId,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Description       *string  `json:"description,omitempty"`
	LowStockThreshold *int     `json:"lowStockThreshold,omitempty"`
}

// IsEmpty reports whether no field is present.
func (p ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.SupplierID == nil &&
		p.Price == nil && p.Description == nil && p.LowStockThreshold == nil
}

// Apply overwrites the present fields of it.
func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.SupplierID != nil {
		it.SupplierID = *p.SupplierID
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.LowStockThreshold != nil {
		it.LowStockThreshold = *p.LowStockThreshold
	}
}

// ItemUpdate targets one record by id.
type ItemUpdate struct {
	ID     string    `json:"id"`
	Update ItemPatch `json:"update"`
}

// SupplierPatch is a partial supplier descriptor.
type SupplierPatch struct {
	Name        *string `json:"name,omitempty"`
	ContactInfo *string `json:"contactInfo,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// Apply overwrites the present fields of s.
func (p SupplierPatch) Apply(s *Supplier) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.ContactInfo != nil {
		s.ContactInfo = *p.ContactInfo
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
}

// ItemFilter narrows ListItems. The zero value lists everything.
type ItemFilter struct {
	Names        []string
	LowStockOnly bool
}

// UpsertResult counts descriptors, not records: a descriptor whose name
// matched at least one record counts as one update.
type UpsertResult struct {
	Created int
	Updated int
}

// SyncMode identifies how a batch was matched against the store.
type SyncMode string

const (
	SyncByID   SyncMode = "id"
	SyncByName SyncMode = "name"
	SyncCreate SyncMode = "create"
)

// SyncFailure records one record the sweep could not reconcile.
type SyncFailure struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name,omitempty"`
	Error  string `json:"error"`
}

// RowError records a CSV row skipped before any write.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// SyncResult summarizes a batch. For SyncByID, Items has one slot per
// input update in input order and nil marks a skipped id.
type SyncResult struct {
	Mode      SyncMode      `json:"mode"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Skipped   int           `json:"skipped"`
	Items     []*Item       `json:"items"`
	Failures  []SyncFailure `json:"failures"`
	RowErrors []RowError    `json:"rowErrors,omitempty"`
}

// Partial reports whether some records were written but not reconciled.
func (r *SyncResult) Partial() bool {
	return len(r.Failures) > 0
}

// ItemStore persists items. Implementations return a *NotFoundError (or
// anything matching ErrNotFound) for unknown ids and never compute
// IsLowStock themselves.
type ItemStore interface {
	// InsertItems stores new records, assigning ids and timestamps, and
	// returns them in input order.
	InsertItems(ctx context.Context, items []Item) ([]Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	// UpdateItem applies the present fields and returns the new state.
	UpdateItem(ctx context.Context, id string, patch ItemPatch) (Item, error)
	SetLowStock(ctx context.Context, id string, low bool) error
	DeleteItem(ctx context.Context, id string) error
	// DeleteItems removes every listed id that exists and returns the count.
	DeleteItems(ctx context.Context, ids []string) (int64, error)
	// UpsertItemsByName applies descriptors in order. A descriptor updates
	// every record with that name, or inserts one with the given defaults.
	UpsertItemsByName(ctx context.Context, batch []ItemPatch, defaults Item) (UpsertResult, error)
}

// SupplierStore persists suppliers.
type SupplierStore interface {
	InsertSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	// GetSuppliers returns the suppliers that exist among ids, keyed by id.
	GetSuppliers(ctx context.Context, ids []string) (map[string]Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	UpdateSupplier(ctx context.Context, id string, patch SupplierPatch) (Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
}

// Store is the Record Store used by Service.
type Store interface {
	ItemStore
	SupplierStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
