// Package logger provides the structured logging used across ghscraper.
//
// It wraps zerolog behind a small Logger interface. Output goes to the
// console and, when a file is configured, to a log file as well. The file
// name may contain a {timestamp} placeholder, which is expanded once when
// the logger is created:
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "github_scraper_{timestamp}.log",
//	})
//	defer logger.Close()
//
//	logger.WithField("login", "octocat").Info("Fetched user")
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to drop them.
package logger
