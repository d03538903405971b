package ratelimit

import "time"

// Databricks workspace API limits.
//
// The workspace endpoints (list, export, import, get-status, mkdirs, delete)
// share a per-workspace budget of roughly 30 requests per second. Import and
// export are heavier and are the first to return 429 under load.
const (
	// WorkspaceLimitPerSec is the documented sustained rate for the workspace scope.
	WorkspaceLimitPerSec = 30.0

	// WorkspaceTargetPercent keeps a safety margin below the hard limit.
	WorkspaceTargetPercent = 66

	// WorkspaceRatePerSec is the rate the client limiter refills at.
	WorkspaceRatePerSec = WorkspaceLimitPerSec * WorkspaceTargetPercent / 100

	// WorkspaceBurstCapacity allows a recursive listing to start quickly.
	WorkspaceBurstCapacity = 40
)

const (
	// DefaultCooldown is applied after a 429 that carries no Retry-After.
	DefaultCooldown = 2 * time.Second

	// MaxCooldown caps server supplied Retry-After values.
	MaxCooldown = 60 * time.Second

	// warnAfter is how long a Wait may block before a warning is logged.
	warnAfter = 2 * time.Second

	// warnInterval throttles the "rate limited" warning.
	warnInterval = 10 * time.Second
)
