package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is logged with the request id; the client gets the
// mapped UserMessage (or the field list for validation failures) as JSON,
// or an ErrorAlert fragment when the request came from HTMX.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/stockkeep/internal/core"
	"github.com/JonMunkholm/stockkeep/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of every non-validation error.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}

// ValidationResponse is the JSON body of a 400 caused by bad input.
type ValidationResponse struct {
	Errors core.ValidationErrors `json:"errors"`
	Code   string                `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var verrs core.ValidationErrors
	var verr core.ValidationError

	switch {
	case errors.As(err, &verrs), errors.As(err, &verr), errors.Is(err, core.ErrInvalidCSV):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the matching response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error alert", "error", err)
		}
		return
	}

	if verrs := validationErrors(err); verrs != nil {
		writeJSON(w, status, ValidationResponse{Errors: verrs, Code: msg.Code})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: msg.Message, Code: msg.Code, Action: msg.Action})
}

func validationErrors(err error) core.ValidationErrors {
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	var verr core.ValidationError
	if errors.As(err, &verr) {
		return core.ValidationErrors{verr}
	}
	return nil
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
