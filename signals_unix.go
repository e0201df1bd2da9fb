//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyToggle subscribes ch to SIGUSR1, the conventional hook for a
// hotkey manager: bind a key to `kill -USR1 $(pidof sayclip)` and skip
// the TCP round trip.
func notifyToggle(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}

// isToggle reports whether s is a toggle rather than a shutdown signal.
func isToggle(s os.Signal) bool {
	return s == syscall.SIGUSR1
}
