// Package cache provides a file-based cache for effective diff results.
//
// Cache entries are keyed by a SHA-256 hash of the diff text, the file
// contents on both sides, and the engine options. Each entry stores the
// serialized result bundle along with a creation timestamp and a TTL (in
// seconds). Expired entries are skipped on read and removed on access.
//
// The default cache directory is $XDG_CACHE_HOME/prradar (or the
// OS-appropriate equivalent).
package cache
