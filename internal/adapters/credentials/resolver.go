// Package credentials resolves the bearer token attached to backend requests.
package credentials

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/zerr"
)

// Source selects where the token is read from. The first non-empty source wins:
// Token, then the TokenEnv variable, then the contents of TokenFile.
type Source struct {
	Token     string
	TokenEnv  string
	TokenFile string
}

// Resolver implements ports.CredentialResolver. Sources are read on every call
// so a rotated token file or environment value takes effect immediately.
type Resolver struct {
	source Source
	now    func() time.Time
}

// New creates a Resolver over the given source.
func New(source Source) *Resolver {
	return &Resolver{source: source, now: time.Now}
}

// Token returns the current bearer token, or "" when none is configured.
// A JWT whose exp claim has passed is rejected with domain.ErrUnauthorized
// instead of being sent.
func (r *Resolver) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token, err := r.lookup()
	if err != nil || token == "" {
		return "", err
	}
	if err := r.checkExpiry(token); err != nil {
		return "", err
	}
	return token, nil
}

func (r *Resolver) lookup() (string, error) {
	if token := strings.TrimSpace(r.source.Token); token != "" {
		return token, nil
	}
	if r.source.TokenEnv != "" {
		if token := strings.TrimSpace(os.Getenv(r.source.TokenEnv)); token != "" {
			return token, nil
		}
	}
	if r.source.TokenFile == "" {
		return "", nil
	}
	// #nosec G304 -- the path is chosen by the operator
	data, err := os.ReadFile(r.source.TokenFile)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrUnauthorized, "read token file: "+err.Error()), "path", r.source.TokenFile)
	}
	return strings.TrimSpace(string(data)), nil
}

// checkExpiry inspects the claims without verifying the signature; the backend
// remains the authority. Opaque (non-JWT) tokens pass through.
func (r *Resolver) checkExpiry(token string) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !r.now().Before(exp.Time) {
		return zerr.With(zerr.Wrap(domain.ErrUnauthorized, "token expired"), "expired_at", exp.UTC().Format(time.RFC3339))
	}
	return nil
}
