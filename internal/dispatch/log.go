package dispatch

import "github.com/decred/slog"

// log is a package level logger that is disabled by default until the
// application sets one with UseLogger.
var log = slog.Disabled

// UseLogger sets the package logger.
func UseLogger(logger slog.Logger) {
	log = logger
}
