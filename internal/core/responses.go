// AngelaMos | 2026
// responses.go

package core

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the error envelope: {success: false, message, errors?}.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError maps an error onto the envelope. AppErrors keep their status and
// public message; bare sentinels get a default mapping; anything else is a
// 500 with the detail kept server-side only.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSON(w, appErr.Status, ErrorResponse{
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		JSON(w, http.StatusNotFound, ErrorResponse{Message: "not found"})
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrConflict):
		JSON(w, http.StatusConflict, ErrorResponse{Message: "conflict"})
	case errors.Is(err, ErrForbidden):
		JSON(w, http.StatusForbidden, ErrorResponse{Message: "forbidden"})
	case errors.Is(err, ErrUnauthorized):
		JSON(w, http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	case errors.Is(err, ErrInvalidInput):
		JSON(w, http.StatusUnprocessableEntity, ErrorResponse{Message: "invalid input"})
	default:
		InternalServerError(w, err)
	}
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Message: message})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "authentication required"
	}
	JSON(w, http.StatusUnauthorized, ErrorResponse{Message: message})
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "insufficient permissions"
	}
	JSON(w, http.StatusForbidden, ErrorResponse{Message: message})
}

func NotFound(w http.ResponseWriter, resource string) {
	JSON(w, http.StatusNotFound, ErrorResponse{Message: resource + " not found"})
}

func UnprocessableEntity(w http.ResponseWriter, fields []FieldError) {
	JSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Message: "validation failed",
		Errors:  fields,
	})
}

// InternalServerError logs the full error server-side and returns a generic
// body, so internal detail never crosses the response boundary.
func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	JSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: "internal server error",
	})
}

// FormatValidationErrors converts validator.ValidationErrors into the
// field-level detail carried by the 422 envelope.
func FormatValidationErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
