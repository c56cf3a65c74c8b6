package store

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a prefixed unique identifier such as "dc_018f6d2e...".
// UUIDv7 keeps ids roughly time-ordered, which makes them usable as the
// tie-breaking component of pagination sort tuples.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + strings.ReplaceAll(id.String(), "-", "")
}
