// Package logging builds the structured loggers used across recordd.
//
// It wraps log/slog with text and JSON handlers:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("server started", "addr", ":3001")
//
// Components accept a *slog.Logger through an option and fall back to
// logging.Nop() when none is given.
package logging
