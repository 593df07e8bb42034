//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package guard

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolate places the child in its own process group and makes cancellation
// kill the whole group, so helpers it spawned do not outlive it.
func isolate(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		err := killGroup(c.Process.Pid)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}

// reap kills whatever is left of the child's process group once Run has
// returned, on every path.
func reap(c *exec.Cmd) {
	if c.Process == nil {
		return
	}
	killGroup(c.Process.Pid)
}

func killGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
