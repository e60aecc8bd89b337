package store

import (
	"github.com/datlevan/tnpipe/pkg/models"
)

// Store defines the interface for launch-record persistence.
// Both SQLite and the in-memory store implement this interface.
type Store interface {
	// Launch operations
	CreateLaunch(l *models.Launch) error
	GetLaunch(id string) (*models.Launch, error)
	GetLaunchByPID(pid int) (*models.Launch, error)
	GetLatestLaunch() (*models.Launch, error)
	GetAllLaunches() ([]*models.Launch, error)
	GetLaunches(state models.LaunchState) ([]*models.Launch, error)
	UpdateLaunchState(id string, state models.LaunchState) error
	MarkExited(id string, exitCode int, reason models.ExitReason, errorMsg string) error
	DeleteLaunch(id string) error

	Close() error
}
