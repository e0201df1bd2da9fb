// Package player launches and supervises the external audio player
// subprocess. Synthesized MP3 frames are written to the player's stdin,
// a tempo filter chain handles playback speed, and teardown escalates
// from a polite terminate to a kill plus an OS sweep so no orphaned
// player outlives its session.
package player
