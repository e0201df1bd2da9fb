//go:build !windows

package player

import (
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
)

// sysProcAttr puts the player in its own process group so terminal
// signals aimed at the daemon never reach it directly; teardown owns
// the ordering instead.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the player's process group to exit.
func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM); err != nil {
		log.Debug("Terminate failed", "pid", cmd.Process.Pid, "error", err)
	}
}

// sweep force-kills any player processes that escaped supervision.
// The exact-name match keeps the daemon itself out of blast range.
func sweep(binary string) {
	name := filepath.Base(binary)
	out, err := exec.Command("pkill", "-9", "-x", name).CombinedOutput()
	if err != nil {
		// pkill exits non-zero when nothing matched.
		log.Debug("Sweep found no stragglers",
			"binary", name,
			"error", err,
			"output", strings.TrimSpace(string(out)))
	}
}
