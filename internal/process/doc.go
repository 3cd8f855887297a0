// Package process answers questions about other processes on this host:
// whether a pid is still running and which process invoked us.
package process
