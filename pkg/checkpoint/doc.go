// Package checkpoint saves and restores the progress of a collection run.
//
// A checkpoint records the logins found by the user search, the user
// details and repositories fetched so far, and the step the run reached.
// An interrupted run started again with --resume continues from there
// instead of repeating requests that already succeeded.
//
// Checkpoints live in the configured directory or, by default, in the
// platform data directory:
//   - Linux: ~/.local/share/ghscraper/checkpoints/
//   - macOS: ~/Library/Application Support/ghscraper/checkpoints/
//   - Windows: %APPDATA%/ghscraper/checkpoints/
//
// One file exists per search query. Files are written atomically.
package checkpoint
