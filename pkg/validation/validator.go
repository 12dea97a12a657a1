// Package validation wires go-playground/validator as Echo's request validator.
package validation

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts validator.Validate to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// New creates a RequestValidator ready to be assigned to echo.Echo.Validator
func New() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate checks struct-level validate tags and reports failures as 400s
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
