package repository

import (
	"go.trai.ch/mirror/internal/core/domain"
)

// Cold is a repository for rarely changing entities. Reads go through the
// query cache with the cold TTL; writes invalidate the affected keys.
type Cold[T domain.Entity, P domain.Patch[T]] struct {
	*Base[T, P]
}

// NewCold creates a cold repository for t.
func NewCold[T domain.Entity, P domain.Patch[T]](deps Deps, t domain.EntityType) *Cold[T, P] {
	b := newBase[T, P](deps, t, domain.DefaultColdTTL)
	b.cached = true
	return &Cold[T, P]{Base: b}
}
