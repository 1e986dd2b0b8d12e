package config

import (
	"time"

	"go.trai.ch/mirror/internal/core/domain"
)

// Config is the structure of mirror.yaml.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig configures the HTTP transport.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
	HotPaths []string      `yaml:"hot_paths"`
}

// RetryConfig configures transient failure retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Statuses    []int         `yaml:"statuses"`
}

// RealtimeConfig configures the realtime channel.
type RealtimeConfig struct {
	URL               string          `yaml:"url"`
	HeartbeatInterval time.Duration   `yaml:"heartbeat_interval"`
	// LivenessTimeout is reset by any inbound frame, including pongs to the
	// websocket ping sent with every heartbeat.
	LivenessTimeout   time.Duration   `yaml:"liveness_timeout"`
	QueueSize         int             `yaml:"queue_size"`
	Reconnect         ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig bounds automatic reconnection.
type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// CacheConfig configures the query cache.
type CacheConfig struct {
	ColdTTL  time.Duration `yaml:"cold_ttl"`
	HotTTL   time.Duration `yaml:"hot_ttl"`
	Capacity uint64        `yaml:"capacity"`
}

// AuthConfig selects where the bearer token comes from.
// Token wins over TokenEnv, which wins over TokenFile.
type AuthConfig struct {
	Token     string `yaml:"token,omitempty"`
	TokenEnv  string `yaml:"token_env"`
	TokenFile string `yaml:"token_file,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	JSON  bool   `yaml:"json"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   500 * time.Millisecond,
				MaxDelay:    8 * time.Second,
				Statuses:    []int{408, 429, 500, 502, 503, 504},
			},
			HotPaths: hotPaths(),
		},
		Realtime: RealtimeConfig{
			HeartbeatInterval: 30 * time.Second,
			LivenessTimeout:   60 * time.Second,
			QueueSize:         256,
			Reconnect: ReconnectConfig{
				MaxAttempts: 5,
				BaseDelay:   time.Second,
				MaxDelay:    30 * time.Second,
			},
		},
		Cache: CacheConfig{
			ColdTTL:  domain.DefaultColdTTL,
			HotTTL:   domain.DefaultHotTTL,
			Capacity: 4096,
		},
		Auth: AuthConfig{TokenEnv: domain.TokenEnv},
		Log:  LogConfig{Level: "info"},
	}
}

func hotPaths() []string {
	var paths []string
	for _, t := range domain.EntityTypes() {
		if domain.TierOf(t) == domain.TierHot {
			paths = append(paths, t.CollectionPath())
		}
	}
	return paths
}
