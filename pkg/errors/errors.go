package errors

import (
	"fmt"
	"net/http"
)

// StandardError represents a standardized error response
type StandardError struct {
	Code    string `json:"error"`   // Error code/type (e.g., "NotFound", "InsufficientStock")
	Message string `json:"message"` // Human-readable error message
	Details string `json:"details"` // Additional details (field name, identifiers, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError":
		return http.StatusBadRequest
	case "Unauthorized":
		return http.StatusUnauthorized
	case "Forbidden":
		return http.StatusForbidden
	case "NotFound":
		return http.StatusNotFound
	case "Conflict":
		return http.StatusConflict
	case "InsufficientStock":
		return http.StatusBadRequest
	case "DependencyUnavailable", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewUnauthorized(message, details string) *StandardError {
	return NewStandardError("Unauthorized", message, details)
}

func NewForbidden(role string) *StandardError {
	return NewStandardError("Forbidden", "insufficient role for this operation", fmt.Sprintf("Role: %s", role))
}

func NewNotFound(message, details string) *StandardError {
	return NewStandardError("NotFound", message, details)
}

func NewInventoryNotFound(storeID, productID int64) *StandardError {
	return NewNotFound("inventory item not found", fmt.Sprintf("Store ID: %d, Product ID: %d", storeID, productID))
}

func NewConflict(storeID, productID int64) *StandardError {
	return NewStandardError("Conflict", "inventory already registered for store and product",
		fmt.Sprintf("Store ID: %d, Product ID: %d", storeID, productID))
}

func NewInsufficientStock(available, requested int64) *StandardError {
	return NewStandardError("InsufficientStock", "insufficient stock available",
		fmt.Sprintf("Available: %d, Requested: %d", available, requested))
}

func NewDependencyUnavailable(dependency string) *StandardError {
	return NewStandardError("DependencyUnavailable", "dependent service unavailable, retry later",
		fmt.Sprintf("Dependency: %s", dependency))
}

// NewInternalError never exposes the underlying error; callers log it instead.
func NewInternalError(message string) *StandardError {
	return NewStandardError("InternalError", message, "")
}
