//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package guard

import "os/exec"

// isolate relies on exec's default cancellation, which kills the direct child.
func isolate(c *exec.Cmd) {}

// reap has no process group to collect.
func reap(c *exec.Cmd) {}
