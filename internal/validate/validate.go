// Package validate checks struct tags with go-playground/validator.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "toml"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Error describes the first failed constraint.
type Error struct {
	Field string
	Rule  string
	Param string
}

func (e *Error) Error() string {
	switch e.Rule {
	case "required":
		return e.Field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field, strings.ReplaceAll(e.Param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "url":
		return e.Field + " must be a valid URL"
	case "email":
		return e.Field + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Rule)
	}
}

// Struct validates s and returns an *Error for the first failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	}
	return err
}
