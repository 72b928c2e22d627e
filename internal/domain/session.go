// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

// SessionID identifies one live participant connection. It is minted by the
// transport layer on connect and is meaningless after disconnect.
type SessionID string

// ValidateDisplayName enforces the name rules in one place so adapters don't
// grow ad-hoc length checks.
func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	return nil
}
