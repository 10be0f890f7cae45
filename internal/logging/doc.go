// Package logging provides structured logging for tandem.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Every callback the external tool delivers (a menu
// command firing, an instance being deleted) is logged with the instance it
// concerns, so a run can be reconstructed after the fact.
//
// # Thread Safety
//
// [Logger] is safe for concurrent use. Child loggers created via With*
// methods share the underlying writer and level.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithInstance(inst.ID()).Info("instance deleted", "live", n)
//
// If the directory is empty, logs go to stderr.
//
// # Changing the Level at Runtime
//
// The level is held in a [slog.LevelVar] shared by the logger and all of its
// children, so [Logger.SetLevel] takes effect everywhere at once. The CLI
// calls it when the config file is edited while instances are open.
package logging
