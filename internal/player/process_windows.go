//go:build windows

package player

import (
	"os/exec"
	"syscall"
)

// setupPlayerProcess runs mpv in its own process group so terminal signals meant for the TUI do not reach it
func setupPlayerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | syscall.DETACHED_PROCESS,
	}
}
