package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError is an error with the HTTP status and message the client should see
type APIError struct {
	Status  int
	Message string
	key     string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusCode lets middleware report the status before the error is rendered
func (e *APIError) StatusCode() int {
	return e.Status
}

// Body is the JSON payload rendered for the error
func (e *APIError) Body() echo.Map {
	key := e.key
	if key == "" {
		key = "message"
	}
	return echo.Map{key: e.Message}
}

// NewAPIError creates an APIError rendered as {"message": ...}
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// NewFormError creates a 400 rendered as {"error": ...}, the shape used by the catalog forms
func NewFormError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message, key: "error"}
}

// respondAPIError writes err when it is an APIError and reports whether it did.
func respondAPIError(c echo.Context, err error) (bool, error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false, nil
	}
	return true, c.JSON(apiErr.Status, apiErr.Body())
}

// internalError hides err from the client; the caller logs it.
func internalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": message})
}
