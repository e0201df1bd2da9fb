package session

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/sayclip/internal/queue"
	"github.com/dgnsrekt/sayclip/internal/tts"
)

// produce fetches audio for each chunk in order and feeds the queue.
// The queue is closed on every exit path, panics included, so the
// consumer always sees end of stream exactly once.
func produce(ctx context.Context, gen uint64, cfg Config, chunks []string, q *queue.Queue) {
	defer q.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Producer panicked", "session", gen, "panic", r)
		}
	}()

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			log.Debug("Producer cancelled", "session", gen, "chunk", i)
			return
		}

		started := time.Now()
		frames := 0
		err := cfg.Fetcher.Fetch(ctx, chunk, func(frame []byte) error {
			if err := q.Put(ctx, frame); err != nil {
				return err
			}
			frames++
			return nil
		})

		switch {
		case err == nil:
			log.Debug("Chunk synthesized",
				"session", gen,
				"chunk", i,
				"runes", utf8.RuneCountInString(chunk),
				"frames", frames,
				"duration", time.Since(started).Round(time.Millisecond))
		case errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrClosed):
			log.Debug("Producer stopping", "session", gen, "chunk", i)
			return
		case errors.Is(err, tts.ErrAttemptsExhausted):
			// One bad chunk must not silence the rest of the text.
			log.Warn("Chunk skipped after repeated failures",
				"session", gen,
				"chunk", i,
				"error", err)
		default:
			log.Warn("Chunk failed", "session", gen, "chunk", i, "error", err)
		}
	}

	log.Debug("Producer finished", "session", gen, "chunks", len(chunks))
}
