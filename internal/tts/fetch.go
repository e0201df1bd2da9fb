package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Fetch timing defaults. The frame timeout bounds the wait for any single
// stream event, not the whole turn.
const (
	DefaultFrameTimeout = 10 * time.Second
	DefaultAttempts     = 3
	DefaultCooldown     = time.Second
)

// Fetcher drives an Engine one chunk at a time: open a stream, forward
// every audio frame to a sink, and retry the whole turn on failure.
type Fetcher struct {
	Engine       Engine
	FrameTimeout time.Duration
	Attempts     int
	Cooldown     time.Duration
}

// NewFetcher returns a Fetcher for engine with the default timing.
func NewFetcher(engine Engine) *Fetcher {
	return &Fetcher{
		Engine:       engine,
		FrameTimeout: DefaultFrameTimeout,
		Attempts:     DefaultAttempts,
		Cooldown:     DefaultCooldown,
	}
}

// Fetch synthesizes text and hands each audio frame to emit, in order.
// A failed turn is retried up to Attempts times with a cooldown in
// between; cancellation of ctx aborts immediately, without retrying.
// An emit error ends the fetch at once — it means the downstream side is
// gone, so the frames have nowhere to go. After exhaustion the caller gets
// an error matching ErrAttemptsExhausted and decides whether to skip.
func (f *Fetcher) Fetch(ctx context.Context, text string, emit func([]byte) error) error {
	return withRetry(ctx, f.Attempts, f.Cooldown, func() error {
		return f.fetchOnce(ctx, text, emit)
	})
}

// fetchOnce runs a single synthesis turn.
func (f *Fetcher) fetchOnce(ctx context.Context, text string, emit func([]byte) error) error {
	start := time.Now()

	stream, err := f.Engine.Open(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	frames := 0
	for {
		recvCtx, cancel := context.WithTimeout(ctx, f.FrameTimeout)
		ev, err := stream.Recv(recvCtx)
		cancel()

		if err != nil {
			// Distinguish the session going away from a stalled stream:
			// only the latter is an attempt failure.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("no event within %s: %w", f.FrameTimeout, err)
			}
			return fmt.Errorf("recv: %w", err)
		}

		switch ev.Type {
		case EventAudio:
			if err := emit(ev.Data); err != nil {
				return nonRetryable(fmt.Errorf("emit frame: %w", err))
			}
			frames++
		case EventError:
			return fmt.Errorf("service error: %s", ev.Message)
		case EventEnd:
			log.Debug("fetch: turn complete",
				"engine", f.Engine.Name(), "frames", frames, "took", time.Since(start))
			return nil
		}
	}
}
