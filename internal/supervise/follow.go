package supervise

import (
	"context"
	"io"
	"time"
)

// FollowLog copies new log output from r to w, tail -f style, polling on
// the given interval. It returns once the watched process is gone AND a
// subsequent poll finds no further output (the child's last writes land
// before the copy that observes zero growth), or when ctx is cancelled.
func FollowLog(ctx context.Context, w io.Writer, r io.Reader, alive func() bool, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	processGone := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := io.Copy(w, r)
			if err != nil {
				return err
			}
			if processGone && n == 0 {
				return nil
			}
			if !alive() {
				processGone = true
			}
		}
	}
}
