// Package logging provides the process-wide structured logger for kcoord.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialised once and then retrieved via GetLogger. The CLI, the
// scenario runner and the telemetry server obtain their loggers here so that
// level, format and destination are controlled from one place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once).
//
// # Context helpers
//
// Helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithAddress(addr)    // adds address field
//	log := logging.WithLock(lockID)     // adds lock_id field
//	log := logging.WithGroup(groupID)   // adds group_id field
//
// The coordination managers take a *slog.Logger of their own and fall back
// to Discard when handed nil.
package logging
