package logging

import (
	"log/slog"

	"kcoord/pkg/primitives"
)

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("futex")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithAddress creates a logger with futex address context.
func WithAddress(addr primitives.Address) *slog.Logger {
	return GetLogger().With("address", addr.String())
}

// WithLock creates a logger with adaptive lock context.
//
// Example:
//
//	log := logging.WithLock(lockID)
//	log.Debug("lock released", "hold", hold)
func WithLock(id primitives.LockID) *slog.Logger {
	return GetLogger().With("lock_id", uint64(id))
}

// WithResource creates a logger with arbitrated resource context.
func WithResource(id primitives.ResourceID) *slog.Logger {
	return GetLogger().With("resource_id", uint64(id))
}

// WithGroup creates a logger with batch group context.
func WithGroup(id primitives.GroupID) *slog.Logger {
	return GetLogger().With("group_id", uint64(id))
}

// WithRun creates a logger tagged with a scenario run id.
func WithRun(runID string) *slog.Logger {
	return GetLogger().With("run_id", runID)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("scenario failed", "file", path)
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
