//go:build windows

package main

import "os"

// notifyToggle is a no-op: Windows has no user signals, so hotkey
// managers go through the control endpoint instead.
func notifyToggle(chan<- os.Signal) {}

// isToggle reports whether s is a toggle rather than a shutdown signal.
func isToggle(os.Signal) bool {
	return false
}
