package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/datlevan/tnpipe/pkg/models"
	"github.com/datlevan/tnpipe/pkg/store"
)

// useTempStore points the launch store at a fresh database under a temp
// working directory, so these tests never touch $HOME or a real pid file
func useTempStore(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing working directory failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })

	viper.Set("store.path", filepath.Join(dir, "launches.db"))
	t.Cleanup(func() { viper.Set("store.path", "") })
	return dir
}

func TestResolveLaunchPIDFileFallback(t *testing.T) {
	useTempStore(t)

	// Empty store, but a legacy pid file from an earlier shell launcher
	if err := os.WriteFile("pipeline.pid", []byte("4321\n"), 0644); err != nil {
		t.Fatalf("writing pid file failed: %v", err)
	}

	l, err := resolveLaunch(nil)
	if err != nil {
		t.Fatalf("resolveLaunch failed: %v", err)
	}
	if l.PID != 4321 {
		t.Errorf("PID = %d, expected 4321 from pid file", l.PID)
	}
	if l.ID != "pidfile" {
		t.Errorf("ID = %q, expected pidfile sentinel", l.ID)
	}
	if l.State != models.LaunchStateUnknown {
		t.Errorf("State = %s, expected unknown for pid-file fallback", l.State)
	}
}

func TestResolveLaunchPrefersStoreOverPIDFile(t *testing.T) {
	dir := useTempStore(t)

	if err := os.WriteFile("pipeline.pid", []byte("4321\n"), 0644); err != nil {
		t.Fatalf("writing pid file failed: %v", err)
	}

	st, err := store.NewSQLiteStore(filepath.Join(dir, "launches.db"))
	if err != nil {
		t.Fatalf("creating store failed: %v", err)
	}
	record := &models.Launch{
		ID:        "launch-recorded",
		PID:       77,
		Program:   "python3",
		LogPath:   "pipeline_output_20240101_100000.log",
		State:     models.LaunchStateRunning,
		StartedAt: time.Now(),
	}
	if err := st.CreateLaunch(record); err != nil {
		t.Fatalf("CreateLaunch failed: %v", err)
	}
	st.Close()

	l, err := resolveLaunch(nil)
	if err != nil {
		t.Fatalf("resolveLaunch failed: %v", err)
	}
	if l.ID != "launch-recorded" || l.PID != 77 {
		t.Errorf("resolveLaunch = %s/%d, expected recorded launch to win over pid file", l.ID, l.PID)
	}

	// Explicit ID lookup goes to the store too
	byID, err := resolveLaunch([]string{"launch-recorded"})
	if err != nil {
		t.Fatalf("resolveLaunch by ID failed: %v", err)
	}
	if byID.PID != 77 {
		t.Errorf("PID = %d, expected 77", byID.PID)
	}
}

func TestResolveLaunchNothingRecorded(t *testing.T) {
	useTempStore(t)

	// No records, no pid file
	if _, err := resolveLaunch(nil); err == nil {
		t.Error("resolveLaunch succeeded with no records and no pid file")
	}
}
