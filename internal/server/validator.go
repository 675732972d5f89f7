package server

import (
	"shop-service/internal/handler"

	"github.com/go-playground/validator/v10"
)

// CustomValidator plugs go-playground/validator into echo's c.Validate
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors by their json names
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(handler.JSONFieldName)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
