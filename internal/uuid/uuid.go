// Package uuid generates and validates the string identifiers used as
// primary keys across the expense tracker schema.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string. UUIDv7 values sort by creation time and are
// monotonic within a process, so ordering rows by id matches insertion order.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fall back to a random v4 if the clock or entropy source fails.
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates and normalizes a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
