package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Patch is a typed partial update for T.
// Validate runs before any store write or network call; Apply produces the
// locally merged candidate used by optimistic updates.
type Patch[T Entity] interface {
	Validate() error
	Apply(current T) T
}

func invalidField(field, reason string) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrValidation, "invalid patch"), "field", field), "reason", reason)
}

func requireNonBlank(field string, v *string) error {
	if v != nil && strings.TrimSpace(*v) == "" {
		return invalidField(field, "must not be blank")
	}
	return nil
}
