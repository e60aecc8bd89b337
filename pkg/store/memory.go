package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/datlevan/tnpipe/pkg/models"
)

var (
	ErrLaunchNotFound = errors.New("launch not found")
	ErrLaunchExists   = errors.New("launch already exists")
)

// MemoryStore is an in-memory implementation of the launch store
type MemoryStore struct {
	launches map[string]*models.Launch
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		launches: make(map[string]*models.Launch),
	}
}

// CreateLaunch adds a launch record
func (s *MemoryStore) CreateLaunch(l *models.Launch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.launches[l.ID]; ok {
		return ErrLaunchExists
	}
	cp := *l
	s.launches[l.ID] = &cp
	return nil
}

// GetLaunch retrieves a launch by ID
func (s *MemoryStore) GetLaunch(id string) (*models.Launch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.launches[id]
	if !ok {
		return nil, ErrLaunchNotFound
	}
	cp := *l
	return &cp, nil
}

// GetLaunchByPID retrieves the most recent launch with the given PID
func (s *MemoryStore) GetLaunchByPID(pid int) (*models.Launch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.Launch
	for _, l := range s.launches {
		if l.PID != pid {
			continue
		}
		if found == nil || l.StartedAt.After(found.StartedAt) {
			found = l
		}
	}
	if found == nil {
		return nil, ErrLaunchNotFound
	}
	cp := *found
	return &cp, nil
}

// GetLatestLaunch retrieves the most recently started launch
func (s *MemoryStore) GetLatestLaunch() (*models.Launch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Launch
	for _, l := range s.launches {
		if latest == nil || l.StartedAt.After(latest.StartedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, ErrLaunchNotFound
	}
	cp := *latest
	return &cp, nil
}

// GetAllLaunches returns all launches, newest first
func (s *MemoryStore) GetAllLaunches() ([]*models.Launch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Launch, 0, len(s.launches))
	for _, l := range s.launches {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// GetLaunches returns launches in the given state, newest first
func (s *MemoryStore) GetLaunches(state models.LaunchState) ([]*models.Launch, error) {
	all, err := s.GetAllLaunches()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Launch, 0, len(all))
	for _, l := range all {
		if l.State == state {
			out = append(out, l)
		}
	}
	return out, nil
}

// UpdateLaunchState updates the state of a launch
func (s *MemoryStore) UpdateLaunchState(id string, state models.LaunchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.launches[id]
	if !ok {
		return ErrLaunchNotFound
	}
	l.State = state
	return nil
}

// MarkExited records terminal state, exit code and reason for a launch
func (s *MemoryStore) MarkExited(id string, exitCode int, reason models.ExitReason, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.launches[id]
	if !ok {
		return ErrLaunchNotFound
	}

	now := time.Now()
	l.StoppedAt = &now
	l.ExitCode = exitCode
	l.ExitReason = reason
	l.Error = errorMsg

	l.State = exitState(exitCode, reason)
	return nil
}

// exitState maps an observed exit to a terminal state. A vanished
// detached child has no observable exit code; that stays unknown.
func exitState(exitCode int, reason models.ExitReason) models.LaunchState {
	switch {
	case reason == models.ExitReasonSignal || reason == models.ExitReasonOOM:
		return models.LaunchStateKilled
	case reason == models.ExitReasonUnknown:
		return models.LaunchStateUnknown
	case exitCode == 0:
		return models.LaunchStateCompleted
	default:
		return models.LaunchStateFailed
	}
}

// DeleteLaunch removes a launch record
func (s *MemoryStore) DeleteLaunch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.launches[id]; !ok {
		return ErrLaunchNotFound
	}
	delete(s.launches, id)
	return nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
