// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"sync"

	"estate_analyzer/platform/apperr"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared custom rules:
//   - field names are reported using their json tag
//   - "ratio" accepts a finite float in [0, 1]
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("ratio", validateRatio)
	_ = v.RegisterValidation("finite", validateFinite)
	return &Validator{v: v}
}

var (
	sharedOnce sync.Once
	shared     *Validator
)

// Shared returns the process-wide validator used by entity constructors.
func Shared() *Validator {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// Check validates s and converts tag violations into an apperr validation
// error whose details map each offending field to a readable message.
func (val *Validator) Check(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	fields := FieldErrors(err)
	if len(fields) == 0 {
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	msg := names[0] + ": " + fields[names[0]]
	if len(names) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(names)-1)
	}
	return apperr.Wrap(apperr.KindValidation, msg, err).WithDetails(fields)
}

// FieldErrors flattens validator errors into field -> message.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = describe(fe)
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte", "max":
		return "must be less than or equal to " + fe.Param()
	case "ratio":
		return "must be between 0 and 1"
	case "finite":
		return "must be a finite number"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateRatio(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	if !ok {
		return false
	}
	return !math.IsNaN(f) && f >= 0 && f <= 1
}

func validateFinite(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	if !ok {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func floatValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	default:
		return 0, false
	}
}
