package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

type itemDocument struct {
	ID                string    `bson:"_id"`
	Name              string    `bson:"name"`
	Quantity          int       `bson:"quantity"`
	SupplierID        string    `bson:"supplierId"`
	Price             float64   `bson:"price"`
	Description       string    `bson:"description"`
	LowStockThreshold int       `bson:"lowStockThreshold"`
	IsLowStock        bool      `bson:"isLowStock"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

func toItemDocument(it core.Item) itemDocument {
	return itemDocument(it)
}

func (d itemDocument) item() core.Item {
	it := core.Item(d)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it
}

type supplierDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	ContactInfo string    `bson:"contactInfo"`
	Address     string    `bson:"address"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d supplierDocument) supplier() core.Supplier {
	s := core.Supplier(d)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s
}

// patchSet builds the $set document for the present fields of p.
// updatedAt is always set.
func patchSet(p core.ItemPatch, ts time.Time) bson.D {
	set := bson.D{}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Quantity != nil {
		set = append(set, bson.E{Key: "quantity", Value: *p.Quantity})
	}
	if p.SupplierID != nil {
		set = append(set, bson.E{Key: "supplierId", Value: *p.SupplierID})
	}
	if p.Price != nil {
		set = append(set, bson.E{Key: "price", Value: *p.Price})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.LowStockThreshold != nil {
		set = append(set, bson.E{Key: "lowStockThreshold", Value: *p.LowStockThreshold})
	}
	return append(set, bson.E{Key: "updatedAt", Value: ts})
}

// insertDefaults builds the $setOnInsert document for an upsert. It covers
// only fields the patch leaves absent so it never overlaps patchSet, and
// leaves out name, which the equality filter supplies.
func insertDefaults(id string, p core.ItemPatch, defaults core.Item, ts time.Time) bson.D {
	doc := bson.D{{Key: "_id", Value: id}}
	if p.Quantity == nil {
		doc = append(doc, bson.E{Key: "quantity", Value: defaults.Quantity})
	}
	if p.SupplierID == nil {
		doc = append(doc, bson.E{Key: "supplierId", Value: defaults.SupplierID})
	}
	if p.Price == nil {
		doc = append(doc, bson.E{Key: "price", Value: defaults.Price})
	}
	if p.Description == nil {
		doc = append(doc, bson.E{Key: "description", Value: defaults.Description})
	}
	if p.LowStockThreshold == nil {
		doc = append(doc, bson.E{Key: "lowStockThreshold", Value: defaults.LowStockThreshold})
	}
	return append(doc,
		bson.E{Key: "isLowStock", Value: false},
		bson.E{Key: "createdAt", Value: ts},
	)
}

func supplierPatchSet(p core.SupplierPatch, ts time.Time) bson.D {
	set := bson.D{}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.ContactInfo != nil {
		set = append(set, bson.E{Key: "contactInfo", Value: *p.ContactInfo})
	}
	if p.Address != nil {
		set = append(set, bson.E{Key: "address", Value: *p.Address})
	}
	return append(set, bson.E{Key: "updatedAt", Value: ts})
}
