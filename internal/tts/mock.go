package tts

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MockEngine is a deterministic in-process engine for tests and pipeline
// dry runs. It mirrors the real engine's event sequence: zero or more
// audio frames, then an end event. Failures can be scripted per open or
// per text, or injected randomly via a failure rate.
type MockEngine struct {
	mu sync.Mutex

	delay     time.Duration // simulated per-frame generation delay
	frames    int           // audio frames per turn
	failRate  float64       // random open-failure probability
	failOpens int           // fail this many opens, then recover
	failText  string        // turns for text containing this report an error event
	stallText string        // turns for text containing this never produce events
	openCount int
}

// NewMockEngine returns a mock with a small generation delay and a handful
// of frames per turn.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		delay:  10 * time.Millisecond,
		frames: 5,
	}
}

// Name implements Engine.
func (e *MockEngine) Name() string { return "mock" }

// Open implements Engine.
func (e *MockEngine) Open(ctx context.Context, text string) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.openCount++

	if e.failOpens > 0 {
		e.failOpens--
		return nil, fmt.Errorf("mock: scripted open failure (%d left)", e.failOpens)
	}
	if e.failRate > 0 && rand.Float64() < e.failRate {
		return nil, fmt.Errorf("mock: random open failure")
	}

	return &mockStream{
		text:   text,
		delay:  e.delay,
		frames: e.frames,
		failed: e.failText != "" && strings.Contains(text, e.failText),
		stall:  e.stallText != "" && strings.Contains(text, e.stallText),
	}, nil
}

// SetDelay sets the simulated per-frame generation delay.
func (e *MockEngine) SetDelay(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = d
}

// SetFrames sets how many audio frames each turn produces.
func (e *MockEngine) SetFrames(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = n
}

// SetFailureRate sets the probability that Open fails, for dry runs that
// want to see the retry path light up.
func (e *MockEngine) SetFailureRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failRate = rate
}

// FailOpens makes the next n Open calls fail before recovering.
func (e *MockEngine) FailOpens(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOpens = n
}

// FailText makes turns for text containing substr report an error event
// instead of audio.
func (e *MockEngine) FailText(substr string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failText = substr
}

// StallText makes turns for text containing substr produce no events at
// all, so the caller's frame timeout is the only way out.
func (e *MockEngine) StallText(substr string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stallText = substr
}

// OpenCount returns how many times Open was called.
func (e *MockEngine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openCount
}

// mockStream replays a scripted turn. Frame payloads embed the source text
// and frame index so tests can assert ordering end to end.
type mockStream struct {
	text   string
	delay  time.Duration
	frames int
	failed bool
	stall  bool

	sent   int
	done   bool
	closed bool
}

// Recv implements Stream.
func (s *mockStream) Recv(ctx context.Context) (Event, error) {
	if s.closed || s.done {
		return Event{}, ErrStreamClosed
	}

	if s.stall {
		<-ctx.Done()
		return Event{}, ctx.Err()
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}

	if s.failed {
		s.done = true
		return Event{Type: EventError, Message: "mock: scripted synthesis failure"}, nil
	}

	if s.sent < s.frames {
		frame := []byte(fmt.Sprintf("%s/frame-%d", s.text, s.sent))
		s.sent++
		return Event{Type: EventAudio, Data: frame}, nil
	}

	s.done = true
	return Event{Type: EventEnd}, nil
}

// Close implements Stream.
func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
