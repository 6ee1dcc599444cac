package core

// # Error Codes Reference
//
// User-facing errors carry a code so that support can find the cause quickly.
//
//	INV001 - Item not found
//	SUP001 - Supplier not found
//	VAL001 - Request failed validation (the response lists each field)
//	CSV001 - File is not a valid CSV
//	CSV002 - Required column missing from CSV
//	CSV003 - Uploaded file is empty
//	CSV004 - No file was provided
//	CSV005 - File exceeds the size limit
//	DB001  - Duplicate key
//	DB004  - Database unreachable
//	DB005  - Connection interrupted
//	DB006  - Operation timed out
//	DB007  - Deadlock
//	UPL002 - Too many imports in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	RATE001 - Too many requests
//	ERR000 - Anything else; check the logs for the technical error
//
// Typed errors (NotFoundError, ValidationErrors, ErrInvalidCSV) are matched
// first with errors.Is/As. Everything else falls back to case-insensitive
// substring matching, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgItemNotFound = UserMessage{
		Message: "Item not found",
		Action:  "Check the item ID and try again",
		Code:    "INV001",
	}
	msgSupplierNotFound = UserMessage{
		Message: "Supplier not found",
		Action:  "Check the supplier ID and try again",
		Code:    "SUP001",
	}
	msgValidation = UserMessage{
		Message: "The request contains invalid values",
		Action:  "Correct the listed fields and try again",
		Code:    "VAL001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure file is comma-separated with a header row",
		Code:    "CSV001",
	}
)

var errorPatterns = []errorPattern{
	// CSV import
	{"missing required column", UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Include a Name column in the header row",
		Code:    "CSV002",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with a header and data rows",
		Code:    "CSV003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was provided",
		Action:  "Send the CSV in the multipart field named file",
		Code:    "CSV004",
	}},
	{"file too large", UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "CSV005",
	}},

	// Database
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Retry the request",
		Code:    "DB001",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"server selection", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},

	// Imports and request lifecycle
	{"too many imports", UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller batch or check your connection",
		Code:    "UPL005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller batch or try again later",
		Code:    "DB006",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&NotFoundError{Entity: "item"})
//	// msg.Code == "INV001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		if nf.Entity == "supplier" {
			return msgSupplierNotFound
		}
		return msgItemNotFound
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return msgValidation
	}
	var single ValidationError
	if errors.As(err, &single) {
		return msgValidation
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	if errors.Is(err, ErrInvalidCSV) {
		return msgInvalidCSV
	}
	return defaultMessage
}

// FormatUserError creates a display string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
