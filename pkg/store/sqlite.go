package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/datlevan/tnpipe/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the launch store.
// Concurrency control lives in the connection settings: a single open
// connection serializes writers, with the busy timeout absorbing
// cross-process contention.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite connection string with parameters for concurrent access
	// - _journal_mode=WAL: Enable Write-Ahead Logging for better concurrency
	// - _busy_timeout=10000: Wait up to 10 seconds when database is locked
	// - _synchronous=NORMAL: Balance between safety and performance
	// - _txlock=immediate: Acquire write lock at transaction start to reduce conflicts
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY; concurrent start/stop invocations
	// from separate shells serialize through the busy timeout
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS launches (
		id TEXT PRIMARY KEY,
		pid INTEGER NOT NULL,
		program TEXT NOT NULL,
		args TEXT,
		workdir TEXT,
		log_path TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		stopped_at DATETIME,
		exit_code INTEGER DEFAULT 0,
		exit_reason TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_launches_state ON launches(state);
	CREATE INDEX IF NOT EXISTS idx_launches_pid ON launches(pid);
	CREATE INDEX IF NOT EXISTS idx_launches_started ON launches(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateLaunch adds a launch record
func (s *SQLiteStore) CreateLaunch(l *models.Launch) error {
	args, err := json.Marshal(l.Args)
	if err != nil {
		return fmt.Errorf("failed to marshal args: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO launches
		(id, pid, program, args, workdir, log_path, state, started_at, stopped_at, exit_code, exit_reason, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.PID, l.Program, string(args), l.Workdir, l.LogPath, string(l.State),
		l.StartedAt, l.StoppedAt, l.ExitCode, string(l.ExitReason), l.Error)
	if err != nil {
		return fmt.Errorf("failed to insert launch: %w", err)
	}
	return nil
}

// GetLaunch retrieves a launch by ID
func (s *SQLiteStore) GetLaunch(id string) (*models.Launch, error) {
	row := s.db.QueryRow(`SELECT id, pid, program, args, workdir, log_path, state,
		started_at, stopped_at, exit_code, exit_reason, error
		FROM launches WHERE id = ?`, id)
	return scanLaunch(row)
}

// GetLaunchByPID retrieves the most recent launch with the given PID
func (s *SQLiteStore) GetLaunchByPID(pid int) (*models.Launch, error) {
	row := s.db.QueryRow(`SELECT id, pid, program, args, workdir, log_path, state,
		started_at, stopped_at, exit_code, exit_reason, error
		FROM launches WHERE pid = ? ORDER BY started_at DESC LIMIT 1`, pid)
	return scanLaunch(row)
}

// GetLatestLaunch retrieves the most recently started launch
func (s *SQLiteStore) GetLatestLaunch() (*models.Launch, error) {
	row := s.db.QueryRow(`SELECT id, pid, program, args, workdir, log_path, state,
		started_at, stopped_at, exit_code, exit_reason, error
		FROM launches ORDER BY started_at DESC LIMIT 1`)
	return scanLaunch(row)
}

// GetAllLaunches returns all launches, newest first
func (s *SQLiteStore) GetAllLaunches() ([]*models.Launch, error) {
	rows, err := s.db.Query(`SELECT id, pid, program, args, workdir, log_path, state,
		started_at, stopped_at, exit_code, exit_reason, error
		FROM launches ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// GetLaunches returns launches in the given state, newest first
func (s *SQLiteStore) GetLaunches(state models.LaunchState) ([]*models.Launch, error) {
	rows, err := s.db.Query(`SELECT id, pid, program, args, workdir, log_path, state,
		started_at, stopped_at, exit_code, exit_reason, error
		FROM launches WHERE state = ? ORDER BY started_at DESC`, string(state))
	if err != nil {
		return nil, fmt.Errorf("failed to query launches: %w", err)
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// UpdateLaunchState updates the state of a launch
func (s *SQLiteStore) UpdateLaunchState(id string, state models.LaunchState) error {
	res, err := s.db.Exec(`UPDATE launches SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("failed to update launch state: %w", err)
	}
	return checkAffected(res)
}

// MarkExited records terminal state, exit code and reason for a launch
func (s *SQLiteStore) MarkExited(id string, exitCode int, reason models.ExitReason, errorMsg string) error {
	state := exitState(exitCode, reason)

	res, err := s.db.Exec(`UPDATE launches
		SET state = ?, stopped_at = ?, exit_code = ?, exit_reason = ?, error = ?
		WHERE id = ?`,
		string(state), time.Now(), exitCode, string(reason), errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark launch exited: %w", err)
	}
	return checkAffected(res)
}

// DeleteLaunch removes a launch record
func (s *SQLiteStore) DeleteLaunch(id string) error {
	res, err := s.db.Exec(`DELETE FROM launches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete launch: %w", err)
	}
	return checkAffected(res)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLaunch(row rowScanner) (*models.Launch, error) {
	var (
		l          models.Launch
		args       sql.NullString
		workdir    sql.NullString
		stoppedAt  sql.NullTime
		exitReason sql.NullString
		errorMsg   sql.NullString
		state      string
	)

	err := row.Scan(&l.ID, &l.PID, &l.Program, &args, &workdir, &l.LogPath, &state,
		&l.StartedAt, &stoppedAt, &l.ExitCode, &exitReason, &errorMsg)
	if err == sql.ErrNoRows {
		return nil, ErrLaunchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan launch: %w", err)
	}

	l.State = models.LaunchState(state)
	if args.Valid && args.String != "" {
		if err := json.Unmarshal([]byte(args.String), &l.Args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal args: %w", err)
		}
	}
	if workdir.Valid {
		l.Workdir = workdir.String
	}
	if stoppedAt.Valid {
		t := stoppedAt.Time
		l.StoppedAt = &t
	}
	if exitReason.Valid {
		l.ExitReason = models.ExitReason(exitReason.String)
	}
	if errorMsg.Valid {
		l.Error = errorMsg.String
	}
	return &l, nil
}

func scanLaunches(rows *sql.Rows) ([]*models.Launch, error) {
	launches := make([]*models.Launch, 0)
	for rows.Next() {
		l, err := scanLaunch(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}
	return launches, rows.Err()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLaunchNotFound
	}
	return nil
}
