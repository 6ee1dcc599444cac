package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
		},
		{
			name:        "item not found",
			err:         fmt.Errorf("get: %w", itemNotFound("abc")),
			wantCode:    "INV001",
			wantMessage: "Item not found",
		},
		{
			name:        "supplier not found",
			err:         supplierNotFound("abc"),
			wantCode:    "SUP001",
			wantMessage: "Supplier not found",
		},
		{
			name:        "validation errors",
			err:         ValidationErrors{{Field: "price", Message: "price is required"}},
			wantCode:    "VAL001",
			wantMessage: "The request contains invalid values",
		},
		{
			name:        "missing column beats invalid csv",
			err:         fmt.Errorf("%w: missing required column %q", ErrInvalidCSV, "Name"),
			wantCode:    "CSV002",
			wantMessage: "Required column is missing from CSV",
		},
		{
			name:        "malformed csv",
			err:         fmt.Errorf("%w: line 3: bare \" in non-quoted field", ErrInvalidCSV),
			wantCode:    "CSV001",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "connection refused",
			err:         &StoreError{Op: "update item", Err: errors.New("dial tcp: connection refused")},
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "mongo server selection",
			err:         errors.New("server selection error: context deadline exceeded"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "too many imports",
			err:         ErrTooManyImports,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "deadline exceeded",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("ERROR: DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(itemNotFound("x"))

	expected := "Item not found (Code: INV001). Check the item ID and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", errors.New("duplicate key"), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_IsErrNotFound(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", itemNotFound("42"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false, want true")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "42" {
		t.Errorf("errors.As() ID = %v, want 42", nf)
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Fatal("empty ValidationErrors.Err() should be nil")
	}

	errs.Add("price", "price is required")
	errs.Add("", "each update must have update data")

	prefixed := errs.Prefixed("items[1]")
	if prefixed[0].Field != "items[1].price" {
		t.Errorf("Prefixed field = %q, want %q", prefixed[0].Field, "items[1].price")
	}
	if prefixed[1].Field != "items[1]" {
		t.Errorf("Prefixed empty field = %q, want %q", prefixed[1].Field, "items[1]")
	}
	if errs[0].Field != "price" {
		t.Error("Prefixed must not modify the receiver")
	}

	want := "validation failed: price: price is required; each update must have update data"
	if got := errs.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
