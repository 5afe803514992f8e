package etl

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BartekS5/movies-etl/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Validator checks a raw record against its input schema before any
// coercion runs.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateRecord reports the first failing column as a ConversionError.
func (v *Validator) ValidateRecord(raw models.RawRecord) error {
	err := v.validate.Struct(raw)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConversionError{
			Entity: raw.Entity(),
			Field:  fe.Field(),
			Err:    fmt.Errorf("value is %s", describeTag(fe.Tag())),
		}
	}
	return fmt.Errorf("validate %s: %w", raw.Entity(), err)
}

func describeTag(tag string) string {
	if tag == "required" {
		return "missing"
	}
	return "not " + tag
}
