//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// isolate starts cmd in its own process group and makes cancellation
// kill the whole group, so pipelines and background jobs die with the
// shell instead of holding its output pipes open.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
