package core

// validation.go holds the domain checks applied before any write.
//
// Request shape is validated at the HTTP edge; these checks guard the
// invariants every caller must respect regardless of transport: non-empty
// names, non-negative quantity, price and threshold.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found in one request so the
// caller can report them all at once.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends an error for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Prefixed returns a copy whose field names are nested under prefix,
// e.g. "items[2]" turns "price" into "items[2].price".
func (v ValidationErrors) Prefixed(prefix string) ValidationErrors {
	out := make(ValidationErrors, len(v))
	for i, e := range v {
		if e.Field != "" {
			e.Field = prefix + "." + e.Field
		} else {
			e.Field = prefix
		}
		out[i] = e
	}
	return out
}

// validatePatch checks the fields that are present.
func validatePatch(p ItemPatch) ValidationErrors {
	var errs ValidationErrors
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs.Add("name", "name cannot be empty")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		errs.Add("quantity", "quantity must be a non-negative integer")
	}
	if p.Price != nil && *p.Price < 0 {
		errs.Add("price", "price must be a non-negative number")
	}
	if p.LowStockThreshold != nil && *p.LowStockThreshold < 0 {
		errs.Add("lowStockThreshold", "low stock threshold must be a non-negative integer")
	}
	return errs
}

// validateNewItem additionally requires the fields a new record cannot
// be created without.
func validateNewItem(p ItemPatch) ValidationErrors {
	errs := validatePatch(p)
	if p.Name == nil {
		errs.Add("name", "name is required")
	}
	if p.Quantity == nil {
		errs.Add("quantity", "quantity is required")
	}
	if p.SupplierID == nil || strings.TrimSpace(*p.SupplierID) == "" {
		errs.Add("supplierId", "valid supplier ID is required")
	}
	if p.Price == nil {
		errs.Add("price", "price is required")
	}
	return errs
}

func validateSupplier(p SupplierPatch, create bool) ValidationErrors {
	var errs ValidationErrors
	if create && p.Name == nil || p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		errs.Add("name", "supplier name is required")
	}
	if create && p.ContactInfo == nil || p.ContactInfo != nil && strings.TrimSpace(*p.ContactInfo) == "" {
		errs.Add("contactInfo", "contact info is required")
	}
	return errs
}
