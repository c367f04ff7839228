package api

import (
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// Validate checks struct tags and returns failing fields mapped to the failed
// rule, or nil when v is valid.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

type validationBody struct {
	APIError
	Fields map[string]string `json:"fields"`
}

func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	WriteJSON(w, http.StatusBadRequest, validationBody{
		APIError: APIError{Code: "VALIDATION_FAILED", Message: "invalid fields: " + strings.Join(names, ", ")},
		Fields:   fields,
	})
}
