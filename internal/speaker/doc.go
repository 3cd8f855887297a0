// Package speaker runs the per-invocation protocol: enqueue an utterance,
// try the playback lock, and, when it is won, drain the queue in priority
// order until it is empty.
package speaker
