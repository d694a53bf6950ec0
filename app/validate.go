package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// Validate checks the struct tags of a form and returns one sentence per
// failed field, in field order. Fields are named by their label tag.
func Validate(form any) []string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	return msgs
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required."
	case "oneof":
		return fmt.Sprintf("%s must be %s.", e.Field(), strings.Join(strings.Fields(e.Param()), " or "))
	case "gt":
		if e.Param() == "0" {
			return e.Field() + " must be a positive number."
		}
		return fmt.Sprintf("%s must be greater than %s.", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s.", e.Field(), e.Param())
	}
	return fmt.Sprintf("%s is invalid.", e.Field())
}
