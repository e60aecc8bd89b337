package observe

import (
	"os"
	"testing"
	"time"
)

func TestSnapshotSelf(t *testing.T) {
	st, err := Snapshot(os.Getpid())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !st.Running {
		t.Fatal("Snapshot(self) reports not running")
	}
	if st.RSSBytes == 0 {
		t.Error("RSSBytes = 0 for a live process")
	}
	if st.CreateTime.IsZero() {
		t.Error("CreateTime not set")
	}
	if st.Uptime() <= 0 {
		t.Errorf("Uptime = %v, expected > 0", st.Uptime())
	}
	if st.Uptime() > 24*time.Hour {
		t.Errorf("Uptime = %v, implausible for a test process", st.Uptime())
	}
}

func TestSnapshotDeadPID(t *testing.T) {
	st, err := Snapshot(1 << 30)
	if err != nil {
		t.Fatalf("Snapshot of dead pid returned error: %v", err)
	}
	if st.Running {
		t.Error("Snapshot of dead pid reports running")
	}
	if st.Uptime() != 0 {
		t.Errorf("Uptime for dead pid = %v, expected 0", st.Uptime())
	}
}

func TestSnapshotInvalidPID(t *testing.T) {
	if _, err := Snapshot(0); err == nil {
		t.Error("Snapshot(0) succeeded, expected error")
	}
	if _, err := Snapshot(-1); err == nil {
		t.Error("Snapshot(-1) succeeded, expected error")
	}
}
