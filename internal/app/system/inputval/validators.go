// internal/app/system/inputval/validators.go
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// allowedAuthMethods lists the sign-in providers the app knows how to
// complete, in display order.
var allowedAuthMethods = []string{"internal", "google", "classlink", "clever", "microsoft"}

// IsValidAuthMethod reports whether method names a supported sign-in
// provider. Comparison is case-insensitive and ignores surrounding space.
func IsValidAuthMethod(method string) bool {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, m := range allowedAuthMethods {
		if method == m {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported auth methods in display order.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(allowedAuthMethods))
	copy(out, allowedAuthMethods)
	return out
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// FieldError is one validation failure with a user-facing message.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures from a Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first failure message, or "" when validation passed.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every failure message with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate checks the string fields of a struct against its `validate`
// tags. Supported rules: required, max=N, email, authmethod, httpurl,
// objectid. The `label` tag names the field in messages; rule checking
// stops at the first failure per field.
func Validate(input any) *Result {
	result := &Result{}

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rules := field.Tag.Get("validate")
		if rules == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := v.Field(i).String()

		if msg := checkRules(value, rules, label); msg != "" {
			result.add(field.Name, msg)
		}
	}
	return result
}

// checkRules applies the comma-separated rule list to value and returns
// the first failure message, or "".
func checkRules(value, rules, label string) string {
	trimmed := strings.TrimSpace(value)
	required := false

	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		name, param, _ := strings.Cut(rule, "=")

		switch name {
		case "required":
			required = true
			if trimmed == "" {
				return fmt.Sprintf("%s is required.", label)
			}
		case "max":
			limit, err := strconv.Atoi(param)
			if err == nil && utf8.RuneCountInString(value) > limit {
				return fmt.Sprintf("%s must be at most %d characters.", label, limit)
			}
		case "email":
			if trimmed == "" && !required {
				continue
			}
			if !IsValidEmail(trimmed) {
				return "A valid email address is required."
			}
		case "authmethod":
			if trimmed == "" && !required {
				continue
			}
			if !IsValidAuthMethod(trimmed) {
				return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(allowedAuthMethods, ", "))
			}
		case "httpurl":
			if trimmed == "" && !required {
				continue
			}
			if !IsValidHTTPURL(trimmed) {
				return fmt.Sprintf("%s must be an http or https URL.", label)
			}
		case "objectid":
			if trimmed == "" && !required {
				continue
			}
			if !IsValidObjectID(trimmed) {
				return fmt.Sprintf("%s is not a valid identifier.", label)
			}
		}
	}
	return ""
}
