// Package cache stores generated commit messages on disk.
//
// Entries are keyed by a SHA-256 hash of the model, output language, recent
// commit subjects and the staged diff, so re-running on an unchanged index
// returns the same message without another API call. Each entry records its
// creation time; entries older than the TTL are treated as misses and removed
// on read. Writes are atomic.
//
// The cache lives in the "cache" subdirectory of the active configuration
// directory.
package cache
