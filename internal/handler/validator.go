package handler

import (
    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to Echo's Validator
// interface so request DTOs can declare their constraints as struct tags.
type RequestValidator struct {
    validate *validator.Validate
}

// NewRequestValidator returns a validator ready to be assigned to
// echo.Echo.Validator.
func NewRequestValidator() *RequestValidator {
    return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i interface{}) error {
    return v.validate.Struct(i)
}
