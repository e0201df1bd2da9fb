//go:build !windows

package player

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// startStandIn launches a harmless binary through the same plumbing as
// a real player so Process semantics can be exercised without ffplay.
func startStandIn(t *testing.T, name string, args ...string) *Process {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed", name)
	}
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = sysProcAttr()
	p, err := startProcess(cmd, name)
	if err != nil {
		t.Fatalf("Failed to start %s: %v", name, err)
	}
	t.Cleanup(p.Shutdown)
	return p
}

func TestCommand_Args(t *testing.T) {
	cmd := Command{Speed: 3.0, ExtraArgs: []string{"-volume", "50"}}
	got := strings.Join(cmd.args(), " ")
	want := "-nodisp -autoexit -i pipe:0 -af atempo=2.0,atempo=1.5 -loglevel warning -volume 50"
	if got != want {
		t.Errorf("Expected args %q, got %q", want, got)
	}
}

func TestCommand_DefaultBinary(t *testing.T) {
	var cmd Command
	if got := cmd.binary(); got != DefaultBinary {
		t.Errorf("Expected default binary %q, got %q", DefaultBinary, got)
	}
}

func TestCommand_StartMissingBinary(t *testing.T) {
	cmd := Command{Binary: "no-such-audio-player"}
	if _, err := cmd.Start(context.Background()); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

func TestCommand_StartCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := Command{Binary: "cat"}
	if _, err := cmd.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProcess_WriteAndNaturalExit(t *testing.T) {
	p := startStandIn(t, "cat")

	if p.Exited() {
		t.Fatal("Expected process to be running after start")
	}
	if _, err := p.Write([]byte("hello")); err != nil {
		t.Errorf("Expected write to succeed, got %v", err)
	}
	if err := p.CloseInput(); err != nil {
		t.Errorf("Expected CloseInput to succeed, got %v", err)
	}
	if err := p.Wait(2 * time.Second); err != nil {
		t.Errorf("Expected clean exit after stdin closed, got %v", err)
	}
	if !p.Exited() {
		t.Error("Expected Exited to report true after exit")
	}
}

func TestProcess_WriteAfterCloseInput(t *testing.T) {
	p := startStandIn(t, "cat")

	if err := p.CloseInput(); err != nil {
		t.Fatalf("CloseInput failed: %v", err)
	}
	if err := p.CloseInput(); err != nil {
		t.Errorf("Expected CloseInput to be idempotent, got %v", err)
	}
	if _, err := p.Write([]byte("late")); !errors.Is(err, ErrInputClosed) {
		t.Errorf("Expected ErrInputClosed, got %v", err)
	}
}

func TestProcess_WaitTimeout(t *testing.T) {
	p := startStandIn(t, "sleep", "30")

	if err := p.Wait(50 * time.Millisecond); !errors.Is(err, ErrStillRunning) {
		t.Errorf("Expected ErrStillRunning, got %v", err)
	}
}

func TestProcess_ShutdownTerminatesStubborn(t *testing.T) {
	// sleep ignores stdin EOF, forcing Shutdown past the polite close.
	p := startStandIn(t, "sleep", "30")

	start := time.Now()
	p.Shutdown()
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Shutdown took %v, expected a prompt terminate", elapsed)
	}
	if !p.Exited() {
		t.Error("Expected process to be gone after Shutdown")
	}

	// Second call is a no-op.
	p.Shutdown()
}

func TestProcess_ShutdownAfterNaturalExit(t *testing.T) {
	p := startStandIn(t, "cat")

	if err := p.CloseInput(); err != nil {
		t.Fatalf("CloseInput failed: %v", err)
	}
	if err := p.Wait(2 * time.Second); err != nil {
		t.Fatalf("Expected natural exit, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown blocked on an already exited process")
	}
}
