package store

import (
	"testing"
	"time"

	"github.com/datlevan/tnpipe/pkg/models"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	st := NewMemoryStore()

	l := &models.Launch{
		ID:        "launch-a",
		PID:       100,
		Program:   "python3",
		LogPath:   "pipeline_output_a.log",
		State:     models.LaunchStateRunning,
		StartedAt: time.Now(),
	}
	if err := st.CreateLaunch(l); err != nil {
		t.Fatalf("CreateLaunch failed: %v", err)
	}
	if err := st.CreateLaunch(l); err != ErrLaunchExists {
		t.Errorf("duplicate CreateLaunch error = %v, expected ErrLaunchExists", err)
	}

	got, err := st.GetLaunch("launch-a")
	if err != nil {
		t.Fatalf("GetLaunch failed: %v", err)
	}

	// Store hands back copies, not aliases
	got.PID = 999
	again, _ := st.GetLaunch("launch-a")
	if again.PID != 100 {
		t.Errorf("store returned aliased record, PID mutated to %d", again.PID)
	}
}

func TestMemoryStoreStateFiltering(t *testing.T) {
	st := NewMemoryStore()

	base := time.Now()
	launches := []*models.Launch{
		{ID: "l1", PID: 1, State: models.LaunchStateRunning, StartedAt: base},
		{ID: "l2", PID: 2, State: models.LaunchStateCompleted, StartedAt: base.Add(time.Second)},
		{ID: "l3", PID: 3, State: models.LaunchStateRunning, StartedAt: base.Add(2 * time.Second)},
	}
	for _, l := range launches {
		if err := st.CreateLaunch(l); err != nil {
			t.Fatalf("CreateLaunch(%s) failed: %v", l.ID, err)
		}
	}

	running, err := st.GetLaunches(models.LaunchStateRunning)
	if err != nil {
		t.Fatalf("GetLaunches failed: %v", err)
	}
	if len(running) != 2 {
		t.Fatalf("running launches = %d, expected 2", len(running))
	}
	if running[0].ID != "l3" {
		t.Errorf("running[0] = %s, expected l3 (newest first)", running[0].ID)
	}

	latest, err := st.GetLatestLaunch()
	if err != nil {
		t.Fatalf("GetLatestLaunch failed: %v", err)
	}
	if latest.ID != "l3" {
		t.Errorf("latest = %s, expected l3", latest.ID)
	}
}

func TestMemoryStoreMarkExited(t *testing.T) {
	st := NewMemoryStore()

	l := &models.Launch{
		ID:        "launch-exit",
		PID:       42,
		State:     models.LaunchStateRunning,
		StartedAt: time.Now(),
	}
	if err := st.CreateLaunch(l); err != nil {
		t.Fatalf("CreateLaunch failed: %v", err)
	}

	if err := st.MarkExited("launch-exit", 1, models.ExitReasonError, "exit status 1"); err != nil {
		t.Fatalf("MarkExited failed: %v", err)
	}

	got, _ := st.GetLaunch("launch-exit")
	if got.State != models.LaunchStateFailed {
		t.Errorf("State = %s, expected failed", got.State)
	}
	if got.Error != "exit status 1" {
		t.Errorf("Error = %q, expected exit status 1", got.Error)
	}
	if got.StoppedAt == nil {
		t.Error("StoppedAt not set")
	}
}
