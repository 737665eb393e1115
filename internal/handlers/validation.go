package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"storefront/internal/models"
)

var setupOnce sync.Once

// SetupValidator registers the custom tags and reports JSON field names
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return models.IsObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

// FlattenedErrors mirrors the form/field split the UI renders
type FlattenedErrors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

type ValidationErrorResponse struct {
	Errors FlattenedErrors `json:"errors"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func formError(msg string) ValidationErrorResponse {
	return ValidationErrorResponse{Errors: FlattenedErrors{
		FormErrors:  []string{msg},
		FieldErrors: map[string][]string{},
	}}
}

// flattenErrors turns a binding error into form and field messages
func flattenErrors(err error) ValidationErrorResponse {
	out := FlattenedErrors{
		FormErrors:  []string{},
		FieldErrors: map[string][]string{},
	}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			field := fieldPath(fe.Namespace())
			out.FieldErrors[field] = append(out.FieldErrors[field], validationMessage(fe))
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		out.FieldErrors[typeErr.Field] = append(out.FieldErrors[typeErr.Field],
			fmt.Sprintf("Expected %s, received %s", typeName(typeErr.Type), typeErr.Value))
	default:
		out.FormErrors = append(out.FormErrors, "Invalid JSON body")
	}

	return ValidationErrorResponse{Errors: out}
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "notblank":
		return "Must not be blank"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must contain at least " + fe.Param() + " character(s)"
		}
		return "Must be greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must contain at most " + fe.Param() + " character(s)"
		}
		return "Must be less than or equal to " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "len":
		return "Must contain exactly " + fe.Param() + " character(s)"
	case "uppercase":
		return "Must be uppercase"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "Invalid url"
	case "objectid":
		return "Invalid id"
	default:
		return "Invalid value"
	}
}
