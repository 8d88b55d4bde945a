// Package logging configures the log/slog loggers used across routemock.
//
// Components take a *slog.Logger through their constructor or an option and
// fall back to Nop() when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("override selected", "path", "/users", "name", "Inactive User")
//
// Tee fans one record out to several handlers; the serve command uses it to
// write to stderr and a log file at the same time.
package logging
