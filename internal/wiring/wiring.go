// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/keel/internal/adapters/cas"
	_ "go.trai.ch/keel/internal/adapters/config"
	_ "go.trai.ch/keel/internal/adapters/dialer"
	_ "go.trai.ch/keel/internal/adapters/elements"
	_ "go.trai.ch/keel/internal/adapters/fs"
	_ "go.trai.ch/keel/internal/adapters/linear"
	_ "go.trai.ch/keel/internal/adapters/logger"
	_ "go.trai.ch/keel/internal/adapters/sandbox"
	_ "go.trai.ch/keel/internal/adapters/sources"
	_ "go.trai.ch/keel/internal/adapters/telemetry"
	_ "go.trai.ch/keel/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/keel/internal/app"
	_ "go.trai.ch/keel/internal/engine/scheduler"
	_ "go.trai.ch/keel/internal/engine/workspace"
)
