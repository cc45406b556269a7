// Package inputval validates user-supplied form and API input. It offers
// standalone predicate functions plus a small tag-driven Validate helper
// for request structs.
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s is a single RFC 5322 address with no
// display name. Single-label domains are accepted so development setups
// like user@localhost work.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}
