// ABOUTME: Local form validation with go-playground/validator before any request is sent
// ABOUTME: Reports the first failing field as a FieldError that wraps ErrValidation

package api

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Provinces are the accepted values for Profile.Province.
var Provinces = []string{
	"Buenos Aires", "Ciudad Autónoma de Buenos Aires", "Catamarca", "Chaco",
	"Chubut", "Córdoba", "Corrientes", "Entre Ríos", "Formosa", "Jujuy",
	"La Pampa", "La Rioja", "Mendoza", "Misiones", "Neuquén", "Río Negro",
	"Salta", "San Juan", "San Luis", "Santa Cruz", "Santa Fe",
	"Santiago del Estero", "Tierra del Fuego", "Tucumán",
}

// Occupations are suggested values for Profile.Occupation; any text is accepted.
var Occupations = []string{
	"Abogado/a", "Estudiante de Derecho", "Escribano/a", "Contador/a",
	"Funcionario/a público/a", "Docente", "Periodista", "Investigador/a",
	"Otro",
}

// DefaultCountry is preselected in the onboarding form.
const DefaultCountry = "Argentina"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("province", func(fl validator.FieldLevel) bool {
			return slices.Contains(Provinces, fl.Field().String())
		})
	})
	return validate
}

// FieldError describes the first invalid field of a form.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field)
	case "province":
		return fmt.Sprintf("%s is not a known province", e.Field)
	}
	return fmt.Sprintf("%s is invalid (%s)", e.Field, e.Tag)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// Validate checks a Registration or Profile.
func Validate(form any) error {
	err := validatorInstance().Struct(form)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		first := errs[0]
		return &FieldError{Field: first.Field(), Tag: first.Tag(), Param: first.Param()}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
