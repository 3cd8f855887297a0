// Package lock implements exclusive marker files: a file whose existence
// claims a named resource for the process recorded inside it. Markers left by
// processes that have since died are reclaimed by the next contender.
package lock
