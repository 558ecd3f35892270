package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validate is the process-wide validator. validator.Validate caches struct
// metadata, so all request types share this one instance.
var Validate = validator.New()

// DecodeJSON unmarshals the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest runs struct-tag validation on a decoded request body.
// A type carrying its own Validate method is checked with that instead.
func ValidateRequest(v interface{}) error {
	if checker, ok := v.(interface{ Validate() error }); ok {
		return checker.Validate()
	}
	return Validate.Struct(v)
}
