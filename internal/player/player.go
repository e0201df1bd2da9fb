package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrPlayerNotFound means the player binary is not in PATH.
	ErrPlayerNotFound = errors.New("player binary not found")

	// ErrInputClosed means a frame was written after CloseInput.
	ErrInputClosed = errors.New("player input already closed")

	// ErrStillRunning means the player outlived a bounded Wait.
	ErrStillRunning = errors.New("player still running")
)

// DefaultBinary is the stock audio player.
const DefaultBinary = "ffplay"

// killWait bounds the polite phase of Shutdown before escalating.
const killWait = 2 * time.Second

// Command describes an audio player invocation.
type Command struct {
	// Binary is the player executable; empty means DefaultBinary.
	Binary string

	// Speed is the playback tempo factor, applied via FilterChain.
	Speed float64

	// ExtraArgs are appended verbatim after the generated arguments.
	ExtraArgs []string
}

// LookPath verifies the player binary is installed. Checking once at
// daemon startup keeps a missing player from surfacing only when the
// first session starts.
func (c Command) LookPath() error {
	bin := c.binary()
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrPlayerNotFound, bin, err)
	}
	return nil
}

func (c Command) binary() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

func (c Command) args() []string {
	args := []string{
		"-nodisp",
		"-autoexit",
		"-i", "pipe:0",
		"-af", FilterChain(c.Speed),
		"-loglevel", "warning",
	}
	return append(args, c.ExtraArgs...)
}

// Start launches the player with stdin piped. The context only gates
// startup; a running player is torn down through Shutdown rather than
// context cancellation so a finished stream can drain naturally.
func (c Command) Start(ctx context.Context) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.LookPath(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.binary(), c.args()...)
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = sysProcAttr()

	p, err := startProcess(cmd, c.binary())
	if err != nil {
		return nil, err
	}

	log.Debug("Player started",
		"binary", p.binary,
		"pid", cmd.Process.Pid,
		"filter", FilterChain(c.Speed))
	return p, nil
}

// startProcess wires the stdin pipe, launches cmd and begins reaping.
func startProcess(cmd *exec.Cmd, binary string) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &Process{
		binary: binary,
		cmd:    cmd,
		stdin:  stdin,
		done:   make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// Process is a handle on a live player subprocess.
type Process struct {
	binary string
	cmd    *exec.Cmd

	writeMu  sync.Mutex
	stdin    io.WriteCloser
	inClosed bool

	done    chan struct{}
	waitErr error

	shutdown sync.Once
}

// reap waits for process exit exactly once and publishes the result.
func (p *Process) reap() {
	p.waitErr = p.cmd.Wait()
	close(p.done)
}

// Write feeds one audio frame into the player's stdin.
func (p *Process) Write(frame []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.inClosed {
		return 0, ErrInputClosed
	}
	return p.stdin.Write(frame)
}

// CloseInput signals end of stream by closing the player's stdin.
// With -autoexit the player drains its buffer and exits on its own.
// Safe to call more than once.
func (p *Process) CloseInput() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.inClosed {
		return nil
	}
	p.inClosed = true
	if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// Exited reports whether the player process is gone, without blocking.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the player exits on its own, returning its exit
// error, or until the timeout lapses, returning ErrStillRunning.
func (p *Process) Wait(timeout time.Duration) error {
	select {
	case <-p.done:
		return p.waitErr
	case <-time.After(timeout):
		return ErrStillRunning
	}
}

// Shutdown tears the player down, escalating until it is gone: close
// stdin, terminate politely, kill after a bounded wait, and sweep the
// OS for stragglers as a last resort. Only the first call acts, so a
// stop request may race a natural completion safely.
func (p *Process) Shutdown() {
	p.shutdown.Do(func() {
		p.CloseInput()

		if p.Exited() {
			return
		}

		terminate(p.cmd)
		if err := p.Wait(killWait); !errors.Is(err, ErrStillRunning) {
			return
		}

		log.Debug("Player ignored terminate, killing", "pid", p.cmd.Process.Pid)
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Debug("Player kill failed", "pid", p.cmd.Process.Pid, "error", err)
		}
		if err := p.Wait(killWait); !errors.Is(err, ErrStillRunning) {
			return
		}

		log.Warn("Player survived kill, sweeping", "binary", p.binary)
		sweep(p.binary)
	})
}
