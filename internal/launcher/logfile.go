package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultLogPrefix matches the historical shell launcher's naming
const DefaultLogPrefix = "pipeline_output_"

// timestampLayout gives second resolution; two launches within the same
// second produce the same name and the later one truncates the earlier log.
const timestampLayout = "20060102_150405"

// LogFileName builds the timestamped log file name for a launch
func LogFileName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultLogPrefix
	}
	return fmt.Sprintf("%s%s.log", prefix, t.Format(timestampLayout))
}

// CreateLogFile creates (or truncates) the log file for a launch and
// returns the open file plus its path.
func CreateLogFile(dir, prefix string, t time.Time) (*os.File, string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, LogFileName(prefix, t))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file %s: %w", path, err)
	}
	return f, path, nil
}
