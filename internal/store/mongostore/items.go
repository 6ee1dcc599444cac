package mongostore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

func (s *Store) InsertItems(ctx context.Context, items []core.Item) ([]core.Item, error) {
	if len(items) == 0 {
		return []core.Item{}, nil
	}

	ts := now()
	out := make([]core.Item, len(items))
	docs := make([]any, len(items))
	for i, it := range items {
		it.ID = uuid.NewString()
		it.CreatedAt, it.UpdatedAt = ts, ts
		out[i] = it
		docs[i] = toItemDocument(it)
	}

	if _, err := s.items.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert items: %w", err)
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (core.Item, error) {
	var doc itemDocument
	if err := s.items.FindOne(ctx, byID(id)).Decode(&doc); err != nil {
		return core.Item{}, mapErr(err)
	}
	return doc.item(), nil
}

func itemFilter(f core.ItemFilter) bson.D {
	filter := bson.D{}
	if f.Names != nil {
		filter = append(filter, bson.E{Key: "name", Value: bson.D{{Key: "$in", Value: f.Names}}})
	}
	if f.LowStockOnly {
		filter = append(filter, bson.E{Key: "isLowStock", Value: true})
	}
	return filter
}

func (s *Store) ListItems(ctx context.Context, f core.ItemFilter) ([]core.Item, error) {
	cur, err := s.items.Find(ctx, itemFilter(f), options.Find().SetSort(sortByCreated))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var docs []itemDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]core.Item, len(docs))
	for i, d := range docs {
		items[i] = d.item()
	}
	return items, nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, p core.ItemPatch) (core.Item, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: patchSet(p, now())}}

	var doc itemDocument
	if err := s.items.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&doc); err != nil {
		return core.Item{}, mapErr(err)
	}
	return doc.item(), nil
}

func (s *Store) SetLowStock(ctx context.Context, id string, low bool) error {
	res, err := s.items.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{
		{Key: "isLowStock", Value: low},
		{Key: "updatedAt", Value: now()},
	}}})
	if err != nil {
		return fmt.Errorf("set low stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.items.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteItems(ctx context.Context, ids []string) (int64, error) {
	res, err := s.items.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	return res.DeletedCount, nil
}

// upsertModels turns each descriptor into an UpdateMany with upsert. Run
// ordered, a later descriptor sees the records an earlier one inserted.
func upsertModels(batch []core.ItemPatch, defaults core.Item) []mongo.WriteModel {
	ts := now()
	models := make([]mongo.WriteModel, len(batch))
	for i, p := range batch {
		name := *p.Name
		p.Name = nil
		models[i] = mongo.NewUpdateManyModel().
			SetFilter(bson.D{{Key: "name", Value: name}}).
			SetUpdate(bson.D{
				{Key: "$set", Value: patchSet(p, ts)},
				{Key: "$setOnInsert", Value: insertDefaults(uuid.NewString(), p, defaults, ts)},
			}).
			SetUpsert(true)
	}
	return models
}

func (s *Store) UpsertItemsByName(ctx context.Context, batch []core.ItemPatch, defaults core.Item) (core.UpsertResult, error) {
	if len(batch) == 0 {
		return core.UpsertResult{}, nil
	}

	res, err := s.items.BulkWrite(ctx, upsertModels(batch, defaults), options.BulkWrite().SetOrdered(true))
	if err != nil {
		return core.UpsertResult{}, fmt.Errorf("bulk upsert: %w", err)
	}

	created := len(res.UpsertedIDs)
	return core.UpsertResult{Created: created, Updated: len(batch) - created}, nil
}
