package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/diewo77/billing-core/internal/dispatch"
	"github.com/diewo77/billing-core/internal/overdue"
	"github.com/diewo77/billing-core/internal/pdf"
	"github.com/diewo77/billing-core/internal/server"
	"github.com/diewo77/billing-core/internal/services"
)

// logWriter implements an io.Writer that outputs to both standard output
// and the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	return logRotator.Write(p)
}

// Loggers per subsystem. A single backend logger is created and all
// subsystem loggers created from it will write to the backend.
//
// Loggers can not be used before the log rotator has been initialized
// with a log file. This must be performed early during application
// startup by calling initLogRotator.
var (
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log         = backendLog.Logger("BILL")
	serverLog   = backendLog.Logger("HTTP")
	servicesLog = backendLog.Logger("SVCS")
	pdfLog      = backendLog.Logger("PDFG")
	dispatchLog = backendLog.Logger("MAIL")
	overdueLog  = backendLog.Logger("SWEP")
)

// Initialize package-global logger variables.
func init() {
	server.UseLogger(serverLog)
	services.UseLogger(servicesLog)
	pdf.UseLogger(pdfLog)
	dispatch.UseLogger(dispatchLog)
	overdue.UseLogger(overdueLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]slog.Logger{
	"BILL": log,
	"HTTP": serverLog,
	"SVCS": servicesLog,
	"PDFG": pdfLog,
	"MAIL": dispatchLog,
	"SWEP": overdueLog,
}

// initLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory. It must be called before
// the package-global log rotator variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0o700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level. Defaults to info when the level string is invalid.
func setLogLevels(logLevel string) {
	level, _ := slog.LevelFromString(logLevel)
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
