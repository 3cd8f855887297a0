// Package cache stores synthesized audio on disk, keyed by a fingerprint of
// the synthesis request. The directory is bounded by total size and entry
// age; file modification times double as last-use timestamps.
package cache
