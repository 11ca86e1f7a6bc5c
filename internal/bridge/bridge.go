// Package bridge drives a Chrome tab over CDP and finds elements by their
// accessibility role the way a user perceives the page.
package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no element matches a selector before the
// action timeout.
var ErrNotFound = errors.New("element not found")

// RoleSelector identifies an element by ARIA role and, optionally, its
// accessible name. Name matching is a case-insensitive substring unless
// Exact is set.
type RoleSelector struct {
	Role  string
	Name  string
	Exact bool
}

func ByRole(role string, name ...string) RoleSelector {
	sel := RoleSelector{Role: role}
	if len(name) > 0 {
		sel.Name = name[0]
	}
	return sel
}

func (s RoleSelector) String() string {
	if s.Name == "" {
		return "role=" + s.Role
	}
	if s.Exact {
		return fmt.Sprintf("role=%s[name=%q s]", s.Role, s.Name)
	}
	return fmt.Sprintf("role=%s[name=%q i]", s.Role, s.Name)
}

func (s RoleSelector) matchName(name string) bool {
	if s.Name == "" {
		return true
	}
	if s.Exact {
		return name == s.Name
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(s.Name))
}

// StrictModeError reports a selector that matched more than one element.
type StrictModeError struct {
	Selector RoleSelector
	Count    int
	// Candidates is a text rendering of the matching nodes.
	Candidates string
}

func (e *StrictModeError) Error() string {
	msg := fmt.Sprintf("strict mode violation: %s resolved to %d elements", e.Selector, e.Count)
	if e.Candidates != "" {
		msg += "\n" + strings.TrimRight(e.Candidates, "\n")
	}
	return msg
}
