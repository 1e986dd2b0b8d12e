// Package domain contains the entity model shared by the store, the repositories and the adapters.
package domain

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// Entity is any record with a stable string identifier.
// Entities are stored by value and replaced wholesale on every write.
type Entity interface {
	EntityID() string
	EntityType() EntityType
}

// ValidID reports whether id can key an entity: non-empty and free of
// surrounding whitespace.
func ValidID(id string) bool {
	return id != "" && strings.TrimSpace(id) == id
}

// EntityType names a normalized table. It doubles as the realtime channel name
// and the REST resource segment.
type EntityType string

const (
	// TypeOrganizations holds organizational reference data.
	TypeOrganizations EntityType = "organizations"
	// TypeProjects holds projects owned by organizations.
	TypeProjects EntityType = "projects"
	// TypeJobs holds extraction jobs.
	TypeJobs EntityType = "jobs"
	// TypeResults holds job results.
	TypeResults EntityType = "results"
	// TypeWorkflows holds workflow definitions and their run state.
	TypeWorkflows EntityType = "workflows"
)

// Tier classifies how an entity type is cached and synchronized.
type Tier uint8

const (
	// TierCold entities change rarely: long TTL, query cache on reads, no realtime.
	TierCold Tier = iota
	// TierHot entities change often: short TTL, store-only reads, realtime push.
	TierHot
)

func (t Tier) String() string {
	if t == TierHot {
		return "hot"
	}
	return "cold"
}

const (
	// DefaultColdTTL is the query cache lifetime for cold entities.
	DefaultColdTTL = 300 * time.Second
	// DefaultHotTTL is the query cache lifetime for hot entities.
	DefaultHotTTL = 30 * time.Second
)

var tiers = map[EntityType]Tier{
	TypeOrganizations: TierCold,
	TypeProjects:      TierCold,
	TypeJobs:          TierHot,
	TypeResults:       TierHot,
	TypeWorkflows:     TierHot,
}

// TierOf returns the fixed tier of an entity type. Unknown types are cold.
func TierOf(t EntityType) Tier {
	return tiers[t]
}

// EntityTypes lists every known entity type in a stable order.
func EntityTypes() []EntityType {
	types := make([]EntityType, 0, len(tiers))
	for t := range tiers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// ParseEntityType resolves a user-supplied name to an entity type.
func ParseEntityType(name string) (EntityType, error) {
	t := EntityType(name)
	if _, ok := tiers[t]; !ok {
		return "", zerr.With(zerr.Wrap(ErrUnknownEntityType, "parse entity type"), "name", name)
	}
	return t, nil
}

// CollectionPath returns the REST collection path of the type.
func (t EntityType) CollectionPath() string {
	return APIPrefix + "/" + string(t)
}

// ItemPath returns the REST path of one entity.
func (t EntityType) ItemPath(id string) string {
	return t.CollectionPath() + "/" + url.PathEscape(id)
}
