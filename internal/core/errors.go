package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCSV marks an import body that could not be parsed at all.
	ErrInvalidCSV = errors.New("invalid csv")
)

// NotFoundError reports a missing record of a given entity type.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func itemNotFound(id string) error {
	return &NotFoundError{Entity: "item", ID: id}
}

func supplierNotFound(id string) error {
	return &NotFoundError{Entity: "supplier", ID: id}
}

// StoreError is returned when a write phase fails and the whole call is
// aborted. Whether earlier writes of the same call survive depends on the
// backend: pgstore rolls the batch back, mongostore and memstore do not.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
