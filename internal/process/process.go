package process

import "os"

// Probe reports whether the process identified by pid is alive.
type Probe func(pid int) bool

// Self returns the pid of the current process.
func Self() int {
	return os.Getpid()
}

// ParentID returns the pid of the invoking process. For a CLI launched from
// a shell this is the shell, which outlives any single command.
func ParentID() int {
	return os.Getppid()
}

// Alive reports whether a process with the given pid exists. Non-positive
// pids are never alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return alive(pid)
}
