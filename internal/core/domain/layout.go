package domain

const (
	// APIPrefix is prepended to every REST resource path.
	APIPrefix = "/api"

	// ConfigFileName is the default configuration file name.
	ConfigFileName = "mirror.yaml"

	// ConfigPathEnv overrides the configuration file path.
	ConfigPathEnv = "MIRROR_CONFIG"

	// APIURLEnv overrides api.base_url.
	APIURLEnv = "MIRROR_API_URL"

	// RealtimeURLEnv overrides realtime.url.
	RealtimeURLEnv = "MIRROR_REALTIME_URL"

	// TokenEnv is the default environment variable holding the bearer token.
	TokenEnv = "MIRROR_TOKEN"

	// RequestIDHeader carries the per-call request id.
	RequestIDHeader = "X-Request-Id"
)
