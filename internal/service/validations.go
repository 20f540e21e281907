package service

import (
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/dayclock"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		// HH:MM on a 24h clock
		validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(dayclock.TimeLayout, fl.Field().String())
			return err == nil
		})
		validate.RegisterValidation("iana_tz", func(fl validator.FieldLevel) bool {
			_, err := dayclock.LoadLocation(fl.Field().String())
			return err == nil
		})
	})
}

// validateStruct joins every field error under kind, so callers can match
// the failure with errors.Is.
func validateStruct(s any, kind error) error {
	InitValidator()
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		joined := []error{kind}
		if kind != errorvalues.ErrValidation {
			joined = append(joined, errorvalues.ErrValidation)
		}
		for _, fieldErr := range validationErrors {
			joined = append(joined, fieldErr)
		}
		return errors.Join(joined...)
	}
	return errors.New("validation unexpected error: " + err.Error())
}
