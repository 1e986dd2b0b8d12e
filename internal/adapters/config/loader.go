// Package config loads the mirror configuration from YAML and the environment.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader resolves and reads mirror.yaml.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

type pathKey struct{}

// WithPath records an explicit config path (the --config flag) for the config node.
func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathKey{}, path)
}

// PathFrom returns the path stored by WithPath.
func PathFrom(ctx context.Context) string {
	path, _ := ctx.Value(pathKey{}).(string)
	return path
}

// Load reads the configuration. An explicit path must exist; otherwise
// MIRROR_CONFIG is consulted, then mirror.yaml is searched from cwd upwards.
// Without any file the defaults apply. Environment overrides are applied last.
func (l *Loader) Load(cwd, explicit string) (*Config, error) {
	cfg := Default()

	path := explicit
	if path == "" {
		path = os.Getenv(domain.ConfigPathEnv)
	}
	if path == "" {
		path = l.discover(cwd)
	}

	if path != "" {
		if err := readAndUnmarshalYAML(path, cfg); err != nil {
			return nil, zerr.With(err, "path", path)
		}
		l.Logger.Debug(fmt.Sprintf("loaded configuration from %s", path))
	} else {
		l.Logger.Debug("no " + domain.ConfigFileName + " found, using defaults")
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) discover(cwd string) string {
	if cwd == "" {
		return ""
	}
	dir := cwd
	for {
		candidate := filepath.Join(dir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- the path is chosen by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(domain.ErrConfigReadFailed, err.Error())
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(domain.APIURLEnv); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(domain.RealtimeURLEnv); v != "" {
		cfg.Realtime.URL = v
	}
	if v := os.Getenv(domain.TokenEnv); v != "" && cfg.Auth.Token == "" {
		cfg.Auth.Token = v
	}
}

// RealtimeURL returns realtime.url, or the websocket endpoint derived from
// api.base_url when unset.
func (c *Config) RealtimeURL() string {
	if c.Realtime.URL != "" {
		return c.Realtime.URL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/realtime"
	return u.String()
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if c.Realtime.URL != "" {
		if err := validateURL("realtime.url", c.Realtime.URL, "ws", "wss"); err != nil {
			return err
		}
	}

	checks := []struct {
		field string
		bad   bool
	}{
		{"api.timeout", c.API.Timeout <= 0},
		{"api.retry.max_attempts", c.API.Retry.MaxAttempts < 1},
		{"api.retry.base_delay", c.API.Retry.BaseDelay < 0},
		{"api.retry.max_delay", c.API.Retry.MaxDelay < c.API.Retry.BaseDelay},
		{"realtime.heartbeat_interval", c.Realtime.HeartbeatInterval <= 0},
		{"realtime.liveness_timeout", c.Realtime.LivenessTimeout < 0},
		{"realtime.queue_size", c.Realtime.QueueSize < 1},
		{"realtime.reconnect.max_attempts", c.Realtime.Reconnect.MaxAttempts < 0},
		{"realtime.reconnect.base_delay", c.Realtime.Reconnect.BaseDelay <= 0},
		{"realtime.reconnect.max_delay", c.Realtime.Reconnect.MaxDelay < c.Realtime.Reconnect.BaseDelay},
		{"cache.cold_ttl", c.Cache.ColdTTL <= 0},
		{"cache.hot_ttl", c.Cache.HotTTL <= 0},
	}
	for _, check := range checks {
		if check.bad {
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "out of range"), "field", check.field)
		}
	}

	for _, status := range c.API.Retry.Statuses {
		if status < 100 || status > 599 {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid status code"), "field", "api.retry.statuses")
			return zerr.With(err, "status", status)
		}
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !containsScheme(schemes, u.Scheme) {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid url"), "field", field)
		return zerr.With(err, "value", raw)
	}
	return nil
}

func containsScheme(schemes []string, scheme string) bool {
	for _, s := range schemes {
		if s == scheme {
			return true
		}
	}
	return false
}
