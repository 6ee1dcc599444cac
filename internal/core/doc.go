// Package core provides the business logic for the inventory backend.
//
// This package holds the domain model and every rule that is not plain
// persistence. It is independent of the transport layer and of any concrete
// database: web handlers, tests and the CLI all drive it through [Service],
// and persistence is reached only through the [Store] capability interface.
//
// # Architecture
//
//   - Domain: [Item] and [Supplier] records, [ItemPatch] descriptors where a
//     nil field means "not present".
//   - Store: the Record Store interface implemented by the memstore, pgstore
//     and mongostore packages.
//   - Evaluator: reconciles the derived IsLowStock flag against quantity and
//     threshold, writing only when the stored flag is stale.
//   - SyncEngine: applies a batch of descriptors (by id, by name, or as new
//     records) and then sweeps the evaluator over every affected record.
//   - Codec: CSV import/export for the item collection.
//
// # Low-Stock Invariant
//
// After every write that touches quantity or lowStockThreshold the evaluator
// runs on the written record, so that
//
//	item.IsLowStock == (item.Quantity < item.LowStockThreshold)
//
// holds once the call returns. The flag is never maintained by the store.
//
// # Sync Failure Domains
//
// A sync has two phases. A failure in the write phase aborts the call with a
// [StoreError] and no sweep is attempted. A failure while reconciling one
// record is collected into [SyncResult.Failures] and the sweep carries on
// with the remaining records.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference (INV, SUP, VAL, CSV, DB, UPL).
package core
