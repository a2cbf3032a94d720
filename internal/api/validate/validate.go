// Package validate holds request-level field checks shared by the HTTP
// handlers. Semantic rules such as weekday codes, interval ordering and
// activity types live with the domain types; the checks here reject
// malformed payloads before they reach a service.
package validate

import (
	"fmt"
	"regexp"
)

// Coarse on purpose: one @, no whitespace, a dotted domain. Anything
// stricter is the mail system's problem.
var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	maxEmailLen       = 320
	maxDisplayNameLen = 100
)

// Email rejects empty, oversized or structurally invalid addresses.
func Email(v string) error {
	switch {
	case v == "":
		return fmt.Errorf("email is required")
	case len(v) > maxEmailLen, !emailRx.MatchString(v):
		return fmt.Errorf("invalid email")
	}
	return nil
}

// NonEmpty rejects empty required string fields.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// MaxLen bounds optional string fields; nil passes.
func MaxLen(field string, v *string, limit int) error {
	if v != nil && len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// CreateUser checks the profile fields of a signup request. The user id is
// assigned by the store, so only email and display name are checked here.
func CreateUser(email string, displayName *string) error {
	if err := Email(email); err != nil {
		return err
	}
	return MaxLen("displayName", displayName, maxDisplayNameLen)
}
