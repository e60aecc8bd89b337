package observe

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time resource snapshot of a launched pipeline
type Stats struct {
	PID        int       `json:"pid"`
	Running    bool      `json:"running"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	CreateTime time.Time `json:"create_time"`
	Cmdline    string    `json:"cmdline,omitempty"`
}

// Snapshot samples resource usage for a PID. A dead PID yields
// Stats{Running: false} rather than an error, so callers can render
// exited launches uniformly.
func Snapshot(pid int) (*Stats, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid: %d", pid)
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return &Stats{PID: pid, Running: false}, nil
	}

	running, err := p.IsRunning()
	if err != nil || !running {
		return &Stats{PID: pid, Running: false}, nil
	}

	st := &Stats{PID: pid, Running: true}

	// Each probe is best effort; a vanished process mid-sample just
	// leaves zero values
	if cpu, err := p.CPUPercent(); err == nil {
		st.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		st.RSSBytes = mem.RSS
	}
	if created, err := p.CreateTime(); err == nil {
		st.CreateTime = time.UnixMilli(created)
	}
	if cmdline, err := p.Cmdline(); err == nil {
		st.Cmdline = cmdline
	}

	return st, nil
}

// Uptime returns how long the process has been alive, zero if unknown
func (s *Stats) Uptime() time.Duration {
	if !s.Running || s.CreateTime.IsZero() {
		return 0
	}
	return time.Since(s.CreateTime)
}
