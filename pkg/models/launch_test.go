package models

import (
	"testing"
	"time"
)

func TestNewLaunchID(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	id := NewLaunchID(at, 4242)
	expected := "launch-20240101-100000-4242"
	if id != expected {
		t.Errorf("NewLaunchID = %q, expected %q", id, expected)
	}
}

func TestLaunchStateIsTerminal(t *testing.T) {
	tests := []struct {
		state    LaunchState
		terminal bool
	}{
		{LaunchStateStarting, false},
		{LaunchStateRunning, false},
		{LaunchStateCompleted, true},
		{LaunchStateFailed, true},
		{LaunchStateKilled, true},
		{LaunchStateUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal(%s) = %v, expected %v", tt.state, got, tt.terminal)
			}
		})
	}
}

func TestLaunchDuration(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	stop := start.Add(60 * time.Second)

	l := &Launch{StartedAt: start, StoppedAt: &stop}
	if d := l.Duration(); d != 60*time.Second {
		t.Errorf("Duration with StoppedAt = %v, expected 60s", d)
	}

	running := &Launch{StartedAt: start}
	if d := running.Duration(); d < 89*time.Second {
		t.Errorf("Duration for running launch = %v, expected >= 89s", d)
	}
}
