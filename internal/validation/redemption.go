// Package validation checks redemption submissions. The intake client and
// the server run the same rules; the client renders every field error while
// the server only needs the first failure class.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/go-playground/validator/v10"
)

// Code classifies a field failure
type Code string

const (
	CodeRequired    Code = "required"
	CodeEmailDomain Code = "edu_email"
	CodeEmailFormat Code = "basic_email"
	CodeInvalid     Code = "invalid"
)

// LocationField groups latitude and longitude for display
const LocationField = "location"

var basicEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError is one failed rule
type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Errors is an ordered list of field failures
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any field failed with code
func (e Errors) Has(code Code) bool {
	for _, fe := range e {
		if fe.Code == code {
			return true
		}
	}
	return false
}

// First returns the first failure for code
func (e Errors) First(code Code) (FieldError, bool) {
	for _, fe := range e {
		if fe.Code == code {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Fields maps each failing field to its message, keeping the first per field
func (e Errors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation(string(CodeEmailDomain), func(fl validator.FieldLevel) bool { //nolint:errcheck
		return IsEduEmail(fl.Field().String())
	})
	_ = v.RegisterValidation(string(CodeEmailFormat), func(fl validator.FieldLevel) bool { //nolint:errcheck
		return IsBasicEmail(fl.Field().String())
	})

	return v
}

// IsEduEmail reports whether the address ends in .edu, ignoring case
func IsEduEmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), ".edu")
}

// IsBasicEmail reports whether the address has a local@domain.tld shape
func IsBasicEmail(email string) bool {
	return basicEmailPattern.MatchString(email)
}

// Redemption validates a copy of req with text fields trimmed. It returns nil
// when every rule passes.
func Redemption(req *models.RedeemRequest) Errors {
	if req == nil {
		return Errors{{Field: "body", Code: CodeRequired, Message: models.MsgMissingFields}}
	}

	normalized := *req
	normalized.Normalize()

	err := validate.Struct(&normalized)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return Errors{{Field: "body", Code: CodeInvalid, Message: err.Error()}}
	}

	var out Errors
	locationReported := false
	for _, fe := range validationErrors {
		field := fe.Field()
		if field == "latitude" || field == "longitude" {
			if locationReported {
				continue
			}
			locationReported = true
			field = LocationField
		}
		code := Code(fe.Tag())
		out = append(out, FieldError{Field: field, Code: code, Message: message(field, code)})
	}
	return out
}

func message(field string, code Code) string {
	switch code {
	case CodeEmailDomain:
		return models.MsgEmailMustEndWithEdu
	case CodeEmailFormat:
		return models.MsgInvalidEmailAddress
	case CodeRequired:
		switch field {
		case "firstName":
			return "First name is required"
		case "lastName":
			return "Last name is required"
		case "asuEmail":
			return "ASU email is required"
		case "hasReceivedCredits":
			return "Please select whether you've received API credits"
		case "orgId":
			return "Claude platform Org ID is required"
		case LocationField:
			return "Location is required to submit the form"
		}
		return field + " is required"
	}
	return field + " is invalid"
}
