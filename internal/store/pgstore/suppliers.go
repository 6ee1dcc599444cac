package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

const supplierColumns = `id, name, contact_info, address, created_at, updated_at`

func scanSupplier(row pgx.CollectableRow) (core.Supplier, error) {
	var s core.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactInfo, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (s *Store) InsertSupplier(ctx context.Context, sup core.Supplier) (core.Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO suppliers (id, name, contact_info, address)
		VALUES ($1, $2, $3, $4)
		RETURNING `+supplierColumns,
		uuid.NewString(), sup.Name, sup.ContactInfo, sup.Address)
	if err != nil {
		return core.Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanSupplier)
	if err != nil {
		return core.Supplier{}, mapErr(err)
	}
	return created, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (core.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return core.Supplier{}, fmt.Errorf("get supplier: %w", err)
	}
	sup, err := pgx.CollectExactlyOneRow(rows, scanSupplier)
	if err != nil {
		return core.Supplier{}, mapErr(err)
	}
	return sup, nil
}

func (s *Store) GetSuppliers(ctx context.Context, ids []string) (map[string]core.Supplier, error) {
	wb := NewWhereBuilder()
	wb.AddAny("id", ids)
	where, args := wb.Build()

	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("get suppliers: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanSupplier)
	if err != nil {
		return nil, fmt.Errorf("scan suppliers: %w", err)
	}

	out := make(map[string]core.Supplier, len(list))
	for _, sup := range list {
		out[sup.ID] = sup
	}
	return out, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanSupplier)
	if err != nil {
		return nil, fmt.Errorf("scan suppliers: %w", err)
	}
	return list, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, id string, p core.SupplierPatch) (core.Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE suppliers SET
			name         = COALESCE($2, name),
			contact_info = COALESCE($3, contact_info),
			address      = COALESCE($4, address),
			updated_at   = now()
		WHERE id = $1
		RETURNING `+supplierColumns,
		id, p.Name, p.ContactInfo, p.Address)
	if err != nil {
		return core.Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	sup, err := pgx.CollectExactlyOneRow(rows, scanSupplier)
	if err != nil {
		return core.Supplier{}, mapErr(err)
	}
	return sup, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
