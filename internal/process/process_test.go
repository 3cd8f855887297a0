package process

import (
	"os/exec"
	"runtime"
	"testing"
)

func TestAlive_Self(t *testing.T) {
	if !Alive(Self()) {
		t.Fatal("current process reported dead")
	}
	if !Alive(ParentID()) {
		t.Fatal("parent process reported dead")
	}
}

func TestAlive_InvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1, -42} {
		if Alive(pid) {
			t.Errorf("pid %d reported alive", pid)
		}
	}
}

func TestAlive_ExitedProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a unix true binary")
	}
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run helper process: %v", err)
	}
	// The child has been reaped by Run, so its pid no longer exists unless
	// the kernel recycled it in between, which is vanishingly unlikely.
	if Alive(cmd.Process.Pid) {
		t.Errorf("exited pid %d reported alive", cmd.Process.Pid)
	}
}
