package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so request DTOs can declare constraints via struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator ready to be assigned to
// echo.Echo.Validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate runs the struct tags of i and converts failures into a 400
// response naming the first offending field.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid field: "+ve[0].Field())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
