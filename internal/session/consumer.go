package session

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/sayclip/internal/queue"
)

// progressInterval throttles the consumer's progress logs.
const progressInterval = 2 * time.Second

// consume drains the frame queue into the player until the stream
// completes, the session is cancelled, or the player dies. Returns the
// number of frames written and their total size.
func consume(ctx context.Context, gen uint64, cfg Config, q *queue.Queue, proc sink) (int, uint64) {
	var (
		frames   int
		total    uint64
		progress = rate.Sometimes{Interval: progressInterval}
	)

	for {
		if ctx.Err() != nil {
			log.Debug("Consumer cancelled", "session", gen, "frames", frames)
			return frames, total
		}
		if proc.Exited() {
			log.Warn("Player exited mid-stream", "session", gen, "frames", frames)
			return frames, total
		}

		frame, err := q.Get(cfg.PollInterval)
		if errors.Is(err, queue.ErrTimeout) {
			continue
		}
		if errors.Is(err, queue.ErrClosed) {
			log.Debug("Stream complete",
				"session", gen,
				"frames", frames,
				"audio", humanize.IBytes(total))
			return frames, total
		}

		if _, err := proc.Write(frame); err != nil {
			if ctx.Err() != nil {
				log.Debug("Consumer cancelled", "session", gen, "frames", frames)
			} else {
				log.Warn("Player write failed", "session", gen, "frames", frames, "error", err)
			}
			return frames, total
		}
		frames++
		total += uint64(len(frame))

		progress.Do(func() {
			log.Debug("Playback progress",
				"session", gen,
				"frames", frames,
				"audio", humanize.IBytes(total))
		})
	}
}
