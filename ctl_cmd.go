package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/sayclip/internal/ctl"
	"github.com/dgnsrekt/sayclip/internal/session"
)

// sendTimeout bounds one control exchange with the daemon. Everything
// is on loopback, so a slow answer means something is wrong.
const sendTimeout = 2 * time.Second

// daemonHandler bridges control verbs onto the session controller.
type daemonHandler struct {
	ctrl *session.Controller
}

func (h daemonHandler) Toggle() string {
	h.ctrl.Toggle()
	return "ok " + h.ctrl.State().String()
}

func (h daemonHandler) Stop() string {
	h.ctrl.Stop()
	return "ok " + h.ctrl.State().String()
}

func (h daemonHandler) Status() string {
	return "ok " + h.ctrl.State().String()
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start reading the clipboard, or stop the current session",
	Long: paragraph(
		fmt.Sprintf("\n%s the running daemon: start reading whatever the clipboard holds, or stop the session already playing. This is the verb to bind to a hotkey.", keyword("Toggle")),
	),
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return sendVerb("toggle")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the current session, if any",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return sendVerb("stop")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the daemon is doing",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return sendVerb("status")
	},
}

// sendVerb sends one verb to the daemon's control endpoint and prints
// the reply.
func sendVerb(verb string) error {
	addr := viper.GetString("listen")
	if addr == "" {
		addr = ctl.DefaultAddr
	}

	reply, err := ctl.Send(addr, verb, sendTimeout)
	if err != nil {
		return fmt.Errorf("no daemon on %s (start one by running plain `sayclip`): %w", addr, err)
	}
	fmt.Println(reply)
	return nil
}
