package ports

import "context"

// CredentialResolver yields the bearer token for a request.
// It is consulted on every call; an empty token means no Authorization header.
//
//go:generate mockgen -source=credentials.go -destination=mocks/mock_credentials.go -package=mocks
type CredentialResolver interface {
	Token(ctx context.Context) (string, error)
}
