package response

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string            `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Machine-readable details returned to clients.
const (
	DetailValidation         = "validation_error"
	DetailBadRequest         = "bad_request"
	DetailEmailTaken         = "email_taken"
	DetailInvalidCredentials = "invalid_credentials"
	DetailUnauthorized       = "unauthorized"
	DetailTaskNotFound       = "task_not_found"
	DetailInternal           = "internal_error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(detail string) Response {
	return Response{
		Status: StatusError,
		Detail: detail,
	}
}

// FieldErrors builds a validation response from already formatted messages keyed by field.
func FieldErrors(errs map[string]string) Response {
	return Response{
		Status: StatusError,
		Detail: DetailValidation,
		Errors: errs,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	out := make(map[string]string, len(errs))

	for _, err := range errs {
		out[err.Field()] = Message(err.Field(), err)
	}

	return FieldErrors(out)
}

// Message renders a single validator failure for field.
func Message(field string, err validator.FieldError) string {
	switch err.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is a required field", field)
	case "email":
		return fmt.Sprintf("field %s is not a valid email", field)
	case "min":
		return fmt.Sprintf("field %s must be at least %s long", field, err.Param())
	case "max":
		return fmt.Sprintf("field %s must be at most %s long", field, err.Param())
	case "oneof":
		return fmt.Sprintf("field %s must be one of: %s", field, err.Param())
	case "maxbytes":
		return fmt.Sprintf("field %s must be at most %s bytes long", field, err.Param())
	case "datetime":
		return fmt.Sprintf("field %s must be a date in YYYY-MM-DD format", field)
	case "gte", "lte":
		return fmt.Sprintf("field %s is out of range", field)
	default:
		return fmt.Sprintf("field %s is not valid", field)
	}
}

// NewValidator returns a validator that reports fields by their json (or form) name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}

		return fld.Name
	})

	_ = v.RegisterValidation("maxbytes", maxBytes)

	return v
}

// maxBytes limits the encoded length of a string, e.g. a bcrypt input.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(fl.Field().String()) <= limit
}
