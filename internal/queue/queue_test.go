package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestQueue_PutGetOrder(t *testing.T) {
	q := New(10)
	defer q.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		frame := []byte(fmt.Sprintf("frame-%d", i))
		if err := q.Put(ctx, frame); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if got := q.Len(); got != 5 {
		t.Errorf("Expected length 5, got %d", got)
	}

	for i := 0; i < 5; i++ {
		frame, err := q.Get(time.Second)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		want := []byte(fmt.Sprintf("frame-%d", i))
		if !bytes.Equal(frame, want) {
			t.Errorf("Expected %q, got %q", want, frame)
		}
	}
}

func TestQueue_GetTimeout(t *testing.T) {
	q := New(10)
	defer q.Close()

	start := time.Now()
	_, err := q.Get(50 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Get returned before the timeout: %v", elapsed)
	}
}

func TestQueue_DrainAfterClose(t *testing.T) {
	q := New(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Put(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	q.Close()

	// Buffered frames must still come out, in order.
	for i := 0; i < 3; i++ {
		frame, err := q.Get(time.Second)
		if err != nil {
			t.Fatalf("Get after close failed: %v", err)
		}
		if frame[0] != byte(i) {
			t.Errorf("Expected frame %d, got %d", i, frame[0])
		}
	}

	// Then the closed signal, on every subsequent call.
	for i := 0; i < 2; i++ {
		if _, err := q.Get(10 * time.Millisecond); !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed, got %v", err)
		}
	}
}

func TestQueue_PutAfterClose(t *testing.T) {
	q := New(10)
	q.Close()

	err := q.Put(context.Background(), []byte("late"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := New(10)

	q.Close()
	q.Close()
	q.Close()

	if !q.Closed() {
		t.Error("Expected Closed to report true")
	}
}

func TestQueue_PutBackpressure(t *testing.T) {
	q := New(1)
	defer q.Close()

	ctx := context.Background()
	if err := q.Put(ctx, []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Put(ctx, []byte("second"))
	}()

	// The second Put must block while the queue is full.
	select {
	case err := <-unblocked:
		t.Fatalf("Put returned while queue was full: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := q.Get(time.Second); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	select {
	case err := <-unblocked:
		if err != nil {
			t.Errorf("Expected blocked Put to succeed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after space was freed")
	}
}

func TestQueue_CloseUnblocksPut(t *testing.T) {
	q := New(1)
	ctx := context.Background()

	if err := q.Put(ctx, []byte("fill")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Put(ctx, []byte("blocked"))
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-unblocked:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock on close")
	}
}

func TestQueue_CancelUnblocksPut(t *testing.T) {
	q := New(1)
	defer q.Close()

	if err := q.Put(context.Background(), []byte("fill")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	unblocked := make(chan error, 1)
	go func() {
		unblocked <- q.Put(ctx, []byte("blocked"))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-unblocked:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock on cancellation")
	}
}

func TestQueue_DefaultCapacity(t *testing.T) {
	q := New(0)
	defer q.Close()

	ctx := context.Background()
	for i := 0; i < DefaultCapacity; i++ {
		if err := q.Put(ctx, []byte{0}); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}
	if got := q.Len(); got != DefaultCapacity {
		t.Errorf("Expected length %d, got %d", DefaultCapacity, got)
	}
}
