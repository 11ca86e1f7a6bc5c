// Package idutil generates identifiers for aggregates, events and requests.
package idutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7. Lexical order follows creation
// order, which the event log and cursor pagination rely on.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// IsValidID reports whether id parses as a UUID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Time extracts the creation time embedded in a UUIDv7.
func Time(id string) (time.Time, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("id %s is not time ordered (v%d)", id, u.Version())
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}
