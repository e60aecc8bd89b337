package launcher

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPIDFile is the legacy single-slot pid file. It only ever holds the
// most recent launch; concurrent launches race on it and the last writer
// wins. The launch store is the authoritative record.
const DefaultPIDFile = "pipeline.pid"

// WritePIDFile writes the PID as decimal text plus newline, overwriting
// any prior contents.
func WritePIDFile(path string, pid int) error {
	if path == "" {
		path = DefaultPIDFile
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// ReadPIDFile parses the PID recorded by a previous launch
func ReadPIDFile(path string) (int, error) {
	if path == "" {
		path = DefaultPIDFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file %s: %w", path, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %d in %s", pid, path)
	}
	return pid, nil
}
