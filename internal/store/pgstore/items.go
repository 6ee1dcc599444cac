package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

const itemColumns = `id, name, quantity, supplier_id, price, description, low_stock_threshold, is_low_stock, created_at, updated_at`

var copyColumns = []string{
	"id", "name", "quantity", "supplier_id", "price", "description",
	"low_stock_threshold", "is_low_stock", "created_at", "updated_at",
}

func scanItem(row pgx.CollectableRow) (core.Item, error) {
	var it core.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Quantity, &it.SupplierID, &it.Price, &it.Description,
		&it.LowStockThreshold, &it.IsLowStock, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

// now is truncated to the precision TIMESTAMPTZ keeps so that values
// returned from inserts compare equal to later reads.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// InsertItems assigns ids client-side and loads the rows with COPY.
func (s *Store) InsertItems(ctx context.Context, items []core.Item) ([]core.Item, error) {
	if len(items) == 0 {
		return []core.Item{}, nil
	}

	ts := now()
	out := make([]core.Item, len(items))
	rows := make([][]any, len(items))
	for i, it := range items {
		it.ID = uuid.NewString()
		it.CreatedAt, it.UpdatedAt = ts, ts
		out[i] = it
		rows[i] = []any{
			it.ID, it.Name, it.Quantity, it.SupplierID, it.Price, it.Description,
			it.LowStockThreshold, it.IsLowStock, it.CreatedAt, it.UpdatedAt,
		}
	}

	if _, err := s.pool.CopyFrom(ctx, pgx.Identifier{"items"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
		return nil, fmt.Errorf("copy items: %w", mapErr(err))
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (core.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	if err != nil {
		return core.Item{}, fmt.Errorf("get item: %w", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		return core.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context, filter core.ItemFilter) ([]core.Item, error) {
	wb := NewWhereBuilder()
	wb.AddAny("name", filter.Names)
	if filter.LowStockOnly {
		wb.Add("is_low_stock", true)
	}
	where, args := wb.Build()

	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items`+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}
	return items, nil
}

// Absent patch fields arrive as NULL and COALESCE keeps the stored value.
const updateItemSQL = `
UPDATE items SET
	name                = COALESCE($2, name),
	quantity            = COALESCE($3, quantity),
	supplier_id         = COALESCE($4, supplier_id),
	price               = COALESCE($5, price),
	description         = COALESCE($6, description),
	low_stock_threshold = COALESCE($7, low_stock_threshold),
	updated_at          = now()
WHERE id = $1
RETURNING ` + itemColumns

func (s *Store) UpdateItem(ctx context.Context, id string, p core.ItemPatch) (core.Item, error) {
	rows, err := s.pool.Query(ctx, updateItemSQL,
		id, p.Name, p.Quantity, p.SupplierID, p.Price, p.Description, p.LowStockThreshold)
	if err != nil {
		return core.Item{}, fmt.Errorf("update item: %w", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		return core.Item{}, mapErr(err)
	}
	return it, nil
}

func (s *Store) SetLowStock(ctx context.Context, id string, low bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET is_low_stock = $2, updated_at = now() WHERE id = $1`, id, low)
	if err != nil {
		return fmt.Errorf("set low stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItems(ctx context.Context, ids []string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	return tag.RowsAffected(), nil
}

const upsertUpdateSQL = `
UPDATE items SET
	quantity            = COALESCE($2, quantity),
	supplier_id         = COALESCE($3, supplier_id),
	price               = COALESCE($4, price),
	description         = COALESCE($5, description),
	low_stock_threshold = COALESCE($6, low_stock_threshold),
	updated_at          = now()
WHERE name = $1`

const upsertInsertSQL = `
INSERT INTO items (` + itemColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)`

// UpsertItemsByName runs the whole batch in one transaction so that a
// failure part way leaves the table as it was.
func (s *Store) UpsertItemsByName(ctx context.Context, batch []core.ItemPatch, defaults core.Item) (core.UpsertResult, error) {
	var res core.UpsertResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, p := range batch {
		if err := ctx.Err(); err != nil {
			return core.UpsertResult{}, err
		}

		created, err := upsertOne(ctx, tx, p, defaults)
		if err != nil {
			return core.UpsertResult{}, fmt.Errorf("descriptor %d (%q): %w", i, *p.Name, mapErr(err))
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return core.UpsertResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func upsertOne(ctx context.Context, db DBTX, p core.ItemPatch, defaults core.Item) (bool, error) {
	tag, err := db.Exec(ctx, upsertUpdateSQL,
		*p.Name, p.Quantity, p.SupplierID, p.Price, p.Description, p.LowStockThreshold)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	it := defaults
	p.Apply(&it)
	_, err = db.Exec(ctx, upsertInsertSQL,
		uuid.NewString(), it.Name, it.Quantity, it.SupplierID, it.Price, it.Description,
		it.LowStockThreshold, now())
	if err != nil {
		return false, err
	}
	return true, nil
}
