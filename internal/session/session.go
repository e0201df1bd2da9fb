package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/sayclip/internal/player"
	"github.com/dgnsrekt/sayclip/internal/queue"
	"github.com/dgnsrekt/sayclip/internal/segment"
	"github.com/dgnsrekt/sayclip/internal/tts"
)

var (
	// ErrNoSource means the controller was built without a text source.
	ErrNoSource = errors.New("no text source configured")

	// ErrNoSegmenter means the controller was built without a segmenter.
	ErrNoSegmenter = errors.New("no segmenter configured")

	// ErrNoFetcher means the controller was built without a fetcher.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// DefaultPollInterval is how often the consumer re-checks session and
// player liveness while waiting for frames.
const DefaultPollInterval = time.Second

// drainWait bounds how long a completed session waits for the player
// to empty its buffer before teardown.
const drainWait = 5 * time.Second

// Source supplies the text a session reads aloud, typically the system
// clipboard.
type Source func() (string, error)

// sink abstracts the player process handle a session drives.
type sink interface {
	Write(p []byte) (int, error)
	CloseInput() error
	Exited() bool
	Wait(timeout time.Duration) error
	Shutdown()
}

// Config wires a Controller's collaborators.
type Config struct {
	// Source supplies the text to read.
	Source Source

	// Segmenter splits captured text into synthesis chunks.
	Segmenter *segment.Segmenter

	// Fetcher turns chunks into audio frames.
	Fetcher *tts.Fetcher

	// Player describes the audio player launched per session.
	Player player.Command

	// QueueSize bounds the frame queue; zero means queue.DefaultCapacity.
	QueueSize int

	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
}

// Controller owns at most one read-aloud session at a time.
type Controller struct {
	// newSink launches the audio player; stubbed in tests.
	newSink func(ctx context.Context, cmd player.Command) (sink, error)

	mu         sync.Mutex
	cfg        Config
	state      State
	cancel     context.CancelFunc
	proc       sink
	generation uint64
}

func validateConfig(cfg *Config) error {
	if cfg.Source == nil {
		return ErrNoSource
	}
	if cfg.Segmenter == nil {
		return ErrNoSegmenter
	}
	if cfg.Fetcher == nil {
		return ErrNoFetcher
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return nil
}

// New validates cfg and returns an idle controller.
func New(cfg Config) (*Controller, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	c := &Controller{cfg: cfg, state: StateIdle}
	c.newSink = func(ctx context.Context, cmd player.Command) (sink, error) {
		return cmd.Start(ctx)
	}
	return c, nil
}

// UpdateConfig swaps the collaborators used by future sessions. Each
// session snapshots the config when it starts, so a live session
// finishes with the set it started with.
func (c *Controller) UpdateConfig(cfg Config) error {
	if err := validateConfig(&cfg); err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	return nil
}

// Toggle implements the hotkey semantics: stop the live session if
// there is one, otherwise start a new one. A toggle during teardown is
// ignored rather than queued.
func (c *Controller) Toggle() {
	switch c.State() {
	case StateStarting, StatePlaying:
		c.Stop()
	case StateStopping:
		log.Debug("Trigger ignored, teardown in progress")
	default:
		c.start()
	}
}

// Stop cancels the live session, if any. Safe to call at any time and
// from any goroutine, including while a natural completion races it:
// whichever path takes the player handle first tears it down, the
// other sees nil and does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateStarting && c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.setState(StateStopping)
	gen := c.generation
	cancel, proc := c.cancel, c.proc
	c.cancel, c.proc = nil, nil
	c.mu.Unlock()

	log.Info("Stopping session", "session", gen)
	if cancel != nil {
		cancel()
	}
	if proc != nil {
		proc.Shutdown()
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Playing reports whether a session is live. A session still starting
// counts, so a quick double-tap of the hotkey stops it rather than
// spawning a second one.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateStarting || c.state == StatePlaying
}

// start captures the source text and spawns the session goroutine.
func (c *Controller) start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		log.Debug("Trigger ignored", "state", c.state)
		return
	}

	text, err := c.cfg.Source()
	if err != nil {
		log.Error("Could not capture text", "error", err)
		return
	}

	c.generation++
	gen := c.generation
	cfg := c.cfg
	c.setState(StateStarting)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	log.Info("Session starting", "session", gen, "chars", len(text))
	go c.run(ctx, gen, cfg, text)
}

// run drives one session from segmentation to teardown.
func (c *Controller) run(ctx context.Context, gen uint64, cfg Config, text string) {
	started := time.Now()

	chunks := cfg.Segmenter.Split(text)
	if len(chunks) == 0 {
		log.Info("Nothing to read", "session", gen)
		c.finish(gen, started, 0, 0)
		return
	}
	log.Debug("Text segmented", "session", gen, "chunks", len(chunks))

	proc, err := c.newSink(ctx, cfg.Player)
	if err != nil {
		log.Error("Could not start player", "session", gen, "error", err)
		c.finish(gen, started, 0, 0)
		return
	}

	c.mu.Lock()
	if c.state != StateStarting {
		// Stop won the race before playback began.
		c.mu.Unlock()
		proc.Shutdown()
		c.finish(gen, started, 0, 0)
		return
	}
	c.proc = proc
	c.setState(StatePlaying)
	c.mu.Unlock()

	q := queue.New(cfg.QueueSize)
	go produce(ctx, gen, cfg, chunks, q)

	frames, bytes := consume(ctx, gen, cfg, q, proc)

	// Natural completion: signal end of stream and let the player drain
	// its buffer. A cancelled session skips straight to teardown.
	if ctx.Err() == nil {
		if err := proc.CloseInput(); err != nil {
			log.Debug("Close player input", "session", gen, "error", err)
		}
		if err := proc.Wait(drainWait); err != nil {
			log.Debug("Player drain", "session", gen, "error", err)
		}
	}

	// Unblocks a producer still waiting on queue space.
	q.Close()

	c.finish(gen, started, frames, bytes)
}

// finish releases whatever the session still owns and returns the
// controller to idle. Exactly one of finish and Stop tears the player
// down; whichever takes the handle first wins.
func (c *Controller) finish(gen uint64, started time.Time, frames int, bytes uint64) {
	c.mu.Lock()
	cancel, proc := c.cancel, c.proc
	c.cancel, c.proc = nil, nil
	c.setState(StateIdle)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if proc != nil {
		proc.Shutdown()
	}

	log.Info("Session finished",
		"session", gen,
		"frames", frames,
		"audio", humanize.IBytes(bytes),
		"duration", time.Since(started).Round(time.Millisecond))
}

// setState moves the machine to the given state. Callers hold c.mu.
func (c *Controller) setState(to State) {
	if !canTransition(c.state, to) {
		log.Error("Illegal state transition", "from", c.state, "to", to)
		return
	}
	log.Debug("Session state", "from", c.state, "to", to)
	c.state = to
}
