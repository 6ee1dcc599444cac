package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// Request bodies. Pointer fields distinguish "absent" from zero; the
// validate tags check shape only, the service enforces domain rules.

type createItemRequest struct {
	Name              *string  `json:"name" validate:"required,min=1"`
	Quantity          *int     `json:"quantity" validate:"required,gte=0"`
	SupplierID        *string  `json:"supplierId" validate:"required,uuid"`
	Price             *float64 `json:"price" validate:"required,gte=0"`
	Description       *string  `json:"description"`
	LowStockThreshold *int     `json:"lowStockThreshold" validate:"omitempty,gte=0"`
}

func (r createItemRequest) patch() core.ItemPatch {
	return core.ItemPatch(r)
}

type updateItemRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	Quantity          *int     `json:"quantity" validate:"omitempty,gte=0"`
	SupplierID        *string  `json:"supplierId" validate:"omitempty,uuid"`
	Price             *float64 `json:"price" validate:"omitempty,gte=0"`
	Description       *string  `json:"description"`
	LowStockThreshold *int     `json:"lowStockThreshold" validate:"omitempty,gte=0"`
}

func (r updateItemRequest) patch() core.ItemPatch {
	return core.ItemPatch(r)
}

type createItemsRequest struct {
	Items []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateEntry struct {
	ID     string            `json:"id" validate:"required"`
	Update updateItemRequest `json:"update"`
}

type updateItemsRequest struct {
	Items []updateEntry `json:"items" validate:"required,min=1,dive"`
}

type deleteItemsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type thresholdRequest struct {
	LowStockThreshold *int `json:"lowStockThreshold" validate:"required,gte=0"`
}

type supplierRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	ContactInfo *string `json:"contactInfo" validate:"omitempty,min=1"`
	Address     *string `json:"address"`
}

func (r supplierRequest) patch() core.SupplierPatch {
	return core.SupplierPatch(r)
}

// requestValidator wraps validator/v10 so failures come back as
// core.ValidationErrors keyed by JSON field path.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

// Struct validates req and translates field errors.
func (rv *requestValidator) Struct(req any) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(core.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, core.ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Value:   valueString(fe.Value()),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the struct name that prefixes a validator namespace:
// "createItemsRequest.items[0].price" becomes "items[0].price".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func valueString(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Struct, reflect.Invalid:
		return ""
	}
	return fmt.Sprint(rv.Interface())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a valid ID"
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return fe.Field() + " must be a non-empty array"
		}
		return fe.Field() + " cannot be empty"
	default:
		return fe.Field() + " is invalid"
	}
}

// decodeJSON reads a single JSON document into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxBytes):
			return err
		case errors.As(err, &typeErr):
			return core.ValidationErrors{{
				Field:   typeErr.Field,
				Message: typeErr.Field + " must be a " + jsonKind(typeErr.Type),
			}}
		case errors.Is(err, io.EOF):
			return core.ValidationErrors{{Message: "request body is required"}}
		default:
			return core.ValidationErrors{{Message: "request body must be valid JSON: " + err.Error()}}
		}
	}
	return s.validate.Struct(dst)
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "integer"
	case reflect.Float64, reflect.Float32:
		return "number"
	case reflect.Slice:
		return "array"
	case reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}
