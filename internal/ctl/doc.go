// Package ctl implements the daemon's loopback control endpoint. The
// TCP bind doubles as the single-instance lock; the line protocol on
// top of it carries the toggle, stop and status verbs so hotkey tools
// and the CLI can drive a running daemon.
package ctl
