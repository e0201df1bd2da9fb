// Package session owns the read-aloud session lifecycle. A controller
// holds at most one live session: a trigger segments the captured text,
// starts the audio player, and runs a producer/consumer pair over a
// bounded frame queue until the stream completes or a stop request
// tears it down. Triggers are cheap; all real work happens in the
// session goroutine.
package session
