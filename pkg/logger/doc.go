// Package logger provides the structured logging interface used across tumbledee.
//
// It wraps zerolog with a small Logger interface supporting leveled messages,
// attached fields and errors. Console output goes to stderr so that stdout
// stays free for the raw response dump printed at high verbosity.
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//	log := logger.GetLogger().WithField("blog", "staff.tumblr.com")
//	log.InfoWithFields("page fetched", map[string]interface{}{
//	    "offset": 50,
//	    "limit":  50,
//	})
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
