//go:build windows

package player

import (
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/windows"
)

// sysProcAttr hides the console window the player would otherwise
// flash on every session.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NO_WINDOW,
		HideWindow:    true,
	}
}

// terminate has no polite signal on Windows; kill outright.
func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		log.Debug("Terminate failed", "pid", cmd.Process.Pid, "error", err)
	}
}

// sweep force-kills any player processes that escaped supervision.
func sweep(binary string) {
	image := filepath.Base(binary)
	if !strings.EqualFold(filepath.Ext(image), ".exe") {
		image += ".exe"
	}
	kill := exec.Command("taskkill", "/F", "/IM", image)
	kill.SysProcAttr = sysProcAttr()
	if out, err := kill.CombinedOutput(); err != nil {
		// taskkill exits non-zero when nothing matched.
		log.Debug("Sweep found no stragglers",
			"image", image,
			"error", err,
			"output", strings.TrimSpace(string(out)))
	}
}
