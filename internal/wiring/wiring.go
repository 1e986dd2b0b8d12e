// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/mirror/internal/adapters/config"
	_ "go.trai.ch/mirror/internal/adapters/credentials"
	_ "go.trai.ch/mirror/internal/adapters/httpapi"
	_ "go.trai.ch/mirror/internal/adapters/logger"
	_ "go.trai.ch/mirror/internal/adapters/querycache"
	_ "go.trai.ch/mirror/internal/adapters/realtime"
	_ "go.trai.ch/mirror/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/mirror/internal/app"
	_ "go.trai.ch/mirror/internal/engine/store"
)
