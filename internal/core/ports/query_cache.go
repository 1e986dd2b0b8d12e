package ports

import (
	"context"
	"time"

	"go.trai.ch/mirror/internal/core/domain"
)

// QueryFunc loads the value of a query on a cache miss.
type QueryFunc func(ctx context.Context) (any, error)

// QueryCache memoizes query results by key for a bounded time.
//
//go:generate mockgen -source=query_cache.go -destination=mocks/mock_query_cache.go -package=mocks
type QueryCache interface {
	// FetchQuery returns the cached value for key, or runs fetch and caches its
	// result for ttl. Errors are never cached.
	FetchQuery(ctx context.Context, key domain.QueryKey, ttl time.Duration, fetch QueryFunc) (any, error)

	// InvalidateQueries drops every entry whose key starts with prefix.
	InvalidateQueries(prefix domain.QueryKey)
}
