package supervise

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFollowLogDrainsAfterExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	if err := os.WriteFile(path, []byte("early output\n"), 0644); err != nil {
		t.Fatalf("writing log failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log failed: %v", err)
	}
	defer f.Close()

	var mu sync.Mutex
	running := true
	alive := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return running
	}

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- FollowLog(context.Background(), &buf, f, alive, 10*time.Millisecond)
	}()

	// Let the follower pick up the early output first
	time.Sleep(50 * time.Millisecond)

	// Final writes land, then the process dies
	appendFile, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("opening log for append failed: %v", err)
	}
	appendFile.WriteString("late output\n")
	appendFile.Close()

	mu.Lock()
	running = false
	mu.Unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("FollowLog returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("FollowLog did not return after process exit")
	}

	out := buf.String()
	if out != "early output\nlate output\n" {
		t.Errorf("followed output = %q, expected both lines drained", out)
	}
}

func TestFollowLogCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("writing log failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log failed: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		// Process stays alive; only cancellation can end the follow
		done <- FollowLog(ctx, &bytes.Buffer{}, f, func() bool { return true }, 10*time.Millisecond)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("FollowLog returned error on cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("FollowLog did not return after cancellation")
	}
}
