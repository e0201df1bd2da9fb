package tts

import "errors"

// Common errors for the synthesis layer.
var (
	// ErrInvalidOptions indicates a malformed voice or prosody setting
	ErrInvalidOptions = errors.New("invalid synthesis options")

	// ErrStreamClosed indicates a Recv after the stream finished or was closed
	ErrStreamClosed = errors.New("synthesis stream is closed")

	// ErrNoAudio indicates the service completed a turn without audio
	ErrNoAudio = errors.New("service returned no audio")

	// ErrAttemptsExhausted indicates every fetch attempt for a chunk failed
	ErrAttemptsExhausted = errors.New("all fetch attempts failed")

	// ErrUnknownEngine indicates an engine name with no implementation
	ErrUnknownEngine = errors.New("unknown synthesis engine")
)
