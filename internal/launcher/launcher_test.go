package launcher

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/datlevan/tnpipe/pkg/models"
)

func TestLogFileName(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		prefix   string
		expected string
	}{
		{"", "pipeline_output_20240101_100000.log"},
		{"pipeline_output_", "pipeline_output_20240101_100000.log"},
		{"tn_", "tn_20240101_100000.log"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := LogFileName(tt.prefix, at); got != tt.expected {
				t.Errorf("LogFileName(%q) = %q, expected %q", tt.prefix, got, tt.expected)
			}
		})
	}
}

func TestCreateLogFileTruncates(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	f1, path, err := CreateLogFile(dir, "", at)
	if err != nil {
		t.Fatalf("CreateLogFile failed: %v", err)
	}
	f1.WriteString("first invocation output\n")
	f1.Close()

	// Same second: same name, truncate semantics
	f2, path2, err := CreateLogFile(dir, "", at)
	if err != nil {
		t.Fatalf("second CreateLogFile failed: %v", err)
	}
	f2.Close()

	if path != path2 {
		t.Errorf("paths differ within same second: %q vs %q", path, path2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("log not truncated, contains %q", data)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.pid")

	if err := WritePIDFile(path, 4321); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading pid file failed: %v", err)
	}
	if string(data) != "4321\n" {
		t.Errorf("pid file contents = %q, expected %q", data, "4321\n")
	}

	pid, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("ReadPIDFile failed: %v", err)
	}
	if pid != 4321 {
		t.Errorf("ReadPIDFile = %d, expected 4321", pid)
	}

	// Overwrite: last writer wins
	if err := WritePIDFile(path, 9999); err != nil {
		t.Fatalf("second WritePIDFile failed: %v", err)
	}
	pid, err = ReadPIDFile(path)
	if err != nil {
		t.Fatalf("ReadPIDFile after overwrite failed: %v", err)
	}
	if pid != 9999 {
		t.Errorf("ReadPIDFile after overwrite = %d, expected 9999", pid)
	}
}

func TestReadPIDFileInvalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"garbage", "not-a-pid\n"},
		{"negative", "-5\n"},
		{"zero", "0\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pipeline.pid")
			if err := os.WriteFile(path, []byte(tt.contents), 0644); err != nil {
				t.Fatalf("writing test pid file failed: %v", err)
			}
			if _, err := ReadPIDFile(path); err == nil {
				t.Errorf("ReadPIDFile(%q) succeeded, expected error", tt.contents)
			}
		})
	}
}

func TestLaunchWritesLogAndPIDTogether(t *testing.T) {
	dir := t.TempDir()

	l, err := Launch(Options{
		Program: "/bin/sh",
		Args:    []string{"-c", "echo pipeline says hello; sleep 0.2"},
		LogDir:  dir,
		PIDFile: filepath.Join(dir, "pipeline.pid"),
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if l.PID <= 0 {
		t.Fatalf("Launch returned pid %d", l.PID)
	}
	if l.State != models.LaunchStateRunning {
		t.Errorf("State = %s, expected running", l.State)
	}

	// Invariant: log file and pid file exist together after launch
	if _, err := os.Stat(l.LogPath); err != nil {
		t.Errorf("log file missing: %v", err)
	}
	pid, err := ReadPIDFile(filepath.Join(dir, "pipeline.pid"))
	if err != nil {
		t.Fatalf("pid file unreadable after launch: %v", err)
	}
	if pid != l.PID {
		t.Errorf("pid file = %d, record = %d", pid, l.PID)
	}

	// The child writes to the log on its own schedule; give it a moment
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(l.LogPath)
		if strings.Contains(string(data), "pipeline says hello") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("child output never appeared in log file")
}

func TestLaunchMissingProgram(t *testing.T) {
	dir := t.TempDir()

	_, err := Launch(Options{
		Program: filepath.Join(dir, "no-such-program"),
		LogDir:  dir,
		PIDFile: filepath.Join(dir, "pipeline.pid"),
	})
	if err == nil {
		t.Fatal("Launch of missing program succeeded, expected error")
	}

	// Launch must not hang and the log file is still created (possibly empty)
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("ReadDir failed: %v", readErr)
	}
	foundLog := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), DefaultLogPrefix) {
			foundLog = true
		}
	}
	if !foundLog {
		t.Error("log file not created for failed spawn")
	}
}

func TestLaunchChildDetached(t *testing.T) {
	dir := t.TempDir()

	l, err := Launch(Options{
		Program: "/bin/sleep",
		Args:    []string{"5"},
		LogDir:  dir,
		PIDFile: filepath.Join(dir, "pipeline.pid"),
	})
	if err != nil {
		t.Skipf("cannot launch /bin/sleep: %v", err)
	}
	defer syscall.Kill(l.PID, syscall.SIGKILL)

	// Child runs in its own session, not ours
	sid, err := unix.Getsid(l.PID)
	if err != nil {
		t.Fatalf("Getsid failed: %v", err)
	}
	ownSid, _ := unix.Getsid(0)
	if sid == ownSid {
		t.Errorf("child shares the launcher's session %d, expected its own", sid)
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	l := &models.Launch{
		ID:      "launch-20240101-100000-77",
		PID:     77,
		LogPath: "pipeline_output_20240101_100000.log",
	}
	WriteReport(&buf, l, "pipeline.pid")

	out := buf.String()
	for _, want := range []string{
		"pipeline_output_20240101_100000.log",
		"77",
		"tail -f",
		"tnpipe stop",
		"pipeline.pid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
