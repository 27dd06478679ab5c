package db

import "strings"

// IsUniqueViolation reports whether err carries a Postgres duplicate-key
// failure. Pass a constraint name to match one specific index, for example
// idx_carts_owner_active when racing cart creation.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
