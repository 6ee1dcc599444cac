package mongostore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

func (s *Store) InsertSupplier(ctx context.Context, sup core.Supplier) (core.Supplier, error) {
	ts := now()
	sup.ID = uuid.NewString()
	sup.CreatedAt, sup.UpdatedAt = ts, ts

	if _, err := s.suppliers.InsertOne(ctx, supplierDocument(sup)); err != nil {
		return core.Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	return sup, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (core.Supplier, error) {
	var doc supplierDocument
	if err := s.suppliers.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return core.Supplier{}, mapErr(err)
	}
	return doc.supplier(), nil
}

func (s *Store) GetSuppliers(ctx context.Context, ids []string) (map[string]core.Supplier, error) {
	out := make(map[string]core.Supplier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.suppliers.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("get suppliers: %w", err)
	}
	var docs []supplierDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode suppliers: %w", err)
	}
	for _, d := range docs {
		out[d.ID] = d.supplier()
	}
	return out, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	cur, err := s.suppliers.Find(ctx, bson.D{}, options.Find().SetSort(sortByCreated))
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	var docs []supplierDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode suppliers: %w", err)
	}

	list := make([]core.Supplier, len(docs))
	for i, d := range docs {
		list[i] = d.supplier()
	}
	return list, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, id string, p core.SupplierPatch) (core.Supplier, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: supplierPatchSet(p, now())}}

	var doc supplierDocument
	if err := s.suppliers.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&doc); err != nil {
		return core.Supplier{}, mapErr(err)
	}
	return doc.supplier(), nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.suppliers.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}
