// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"net/url"
)

// Transport executes typed HTTP verbs against the backend.
//
// Paths are absolute API paths (e.g. "/api/jobs/j1"). Bodies are JSON-encoded and
// responses are decoded into out when out is non-nil. Failures are *domain.APIError
// values matching one of the transport sentinels with errors.Is.
//
//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}
