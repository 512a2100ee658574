package db

import "strings"

// IsUniqueViolation reports whether err carries a Postgres unique violation.
// A non-empty constraintName scopes the check to that constraint; otherwise
// any duplicate-key error matches. Matching is textual so it works across
// both the pgx and lib/pq drivers.
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
