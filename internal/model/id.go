package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidID = errors.New("invalid identifier")

// ID is a validated store identifier. The zero value is not a valid ID.
type ID string

// NewID returns a time-ordered identifier; later calls in the same process
// sort after earlier ones.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return ID(uuid.NewString())
	}
	return ID(id.String())
}

// ParseID validates raw and returns it in canonical form.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidID
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidID
	}
	return ID(parsed.String()), nil
}

// IsValidID reports whether raw would be accepted by ParseID.
func IsValidID(raw string) bool {
	_, err := ParseID(raw)
	return err == nil
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}
