package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ts4z/homegame/he"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationMessage turns validator errors into something a client can act
// on without leaking Go field names.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request"
	}

	msgs := []string{}
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "gt", "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s is out of range", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// decode reads a JSON body into req and validates it.  The error carries a
// 400 status.
func decode(r *http.Request, req any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return he.HTTPCodedErrorf(http.StatusBadRequest, "invalid JSON: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return he.HTTPCodedErrorf(http.StatusBadRequest, "%s", validationMessage(err))
	}
	return nil
}
