package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. Transactions start immediate so the conflict probe and the
// following write hold the write lock together.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the database file, creates the schema and returns the store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires the store over an existing connection (used by the factory
// and by tests).
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users       { return &users{db: s.db} }
func (s *sqliteStore) Windows() store.Windows   { return &windows{db: s.db} }
func (s *sqliteStore) Sessions() store.Sessions { return &sessions{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables if they do not exist. The CHECK constraints
// mirror the Postgres schema so both drivers reject the same invalid rows.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            display_name TEXT,
            time_zone TEXT NOT NULL,
            creation_time TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS availability_windows (
            user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
            window_id TEXT NOT NULL,
            day_of_week TEXT NOT NULL CHECK (day_of_week IN ('MON','TUE','WED','THU','FRI','SAT','SUN')),
            start_minute INTEGER NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
            end_minute INTEGER NOT NULL CHECK (end_minute > start_minute AND end_minute <= 1440),
            creation_time TIMESTAMP NOT NULL,
            PRIMARY KEY (user_id, window_id)
        )`,
		`CREATE TABLE IF NOT EXISTS sessions (
            user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
            session_id TEXT NOT NULL,
            title TEXT NOT NULL,
            session_type TEXT NOT NULL CHECK (session_type IN
                ('deep_work','workout','meditation','learning','reading','social','chores','rest')),
            start_time TIMESTAMP NOT NULL,
            end_time TIMESTAMP NOT NULL CHECK (end_time > start_time),
            priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
            completed BOOLEAN NOT NULL DEFAULT 0,
            completed_at TIMESTAMP,
            description TEXT,
            from_suggestion_id TEXT,
            deleted_at TIMESTAMP,
            creation_time TIMESTAMP NOT NULL,
            update_time TIMESTAMP NOT NULL,
            PRIMARY KEY (user_id, session_id),
            CHECK (completed = (completed_at IS NOT NULL))
        )`,
		`CREATE INDEX IF NOT EXISTS sessions_user_start_idx ON sessions (user_id, start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, creation_time)
        VALUES (?,?,?,?,?)
    `, id, m.Email, m.DisplayName, m.TimeZone, now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, creation_time
        FROM users WHERE user_id = ?
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
		}
		return nil, err
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}
	return nil
}

// --- Availability windows ---
type windows struct{ db *sql.DB }

func (w *windows) Create(ctx context.Context, m *model.AvailabilityWindow) (*model.AvailabilityWindow, error) {
	id := m.WindowID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := w.db.ExecContext(ctx, `
        INSERT INTO availability_windows (user_id, window_id, day_of_week, start_minute, end_minute, creation_time)
        VALUES (?,?,?,?,?,?)
    `, m.UserID, id, m.DayOfWeek, int(m.StartTime), int(m.EndTime), now)
	if err != nil {
		return nil, err
	}
	out := *m
	out.WindowID = id
	out.CreationTime = now
	return &out, nil
}

func (w *windows) List(ctx context.Context, userID string) ([]*model.AvailabilityWindow, error) {
	rows, err := w.db.QueryContext(ctx, `
        SELECT window_id, day_of_week, start_minute, end_minute, creation_time
        FROM availability_windows WHERE user_id = ?
    `, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.AvailabilityWindow
	for rows.Next() {
		var m model.AvailabilityWindow
		m.UserID = userID
		if err := rows.Scan(&m.WindowID, &m.DayOfWeek, &m.StartTime, &m.EndTime, &m.CreationTime); err != nil {
			return nil, err
		}
		m.CreationTime = m.CreationTime.UTC()
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortWindows(out)
	return out, nil
}

func (w *windows) Delete(ctx context.Context, userID, windowID string) error {
	res, err := w.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE user_id = ? AND window_id = ?`, userID, windowID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: window %s", model.ErrNotFound, windowID)
	}
	return nil
}

// sortWindows orders windows by calendar position, then start time.
func sortWindows(ws []*model.AvailabilityWindow) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].DayOfWeek != ws[j].DayOfWeek {
			return ws[i].DayOfWeek.Ordinal() < ws[j].DayOfWeek.Ordinal()
		}
		if ws[i].StartTime != ws[j].StartTime {
			return ws[i].StartTime < ws[j].StartTime
		}
		return ws[i].WindowID < ws[j].WindowID
	})
}

// --- Sessions ---
type sessions struct{ db *sql.DB }

const sessionColumns = `user_id, session_id, title, session_type, start_time, end_time, priority,
        completed, completed_at, description, from_suggestion_id, deleted_at, creation_time, update_time`

func (s *sessions) Create(ctx context.Context, m *model.Session, allowConflicts bool) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := overlapping(ctx, tx, m.UserID, m.StartTime, m.EndTime, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !allowConflicts {
		return nil, &model.ConflictError{Conflicts: conflicts}
	}

	id := m.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	out := *m
	out.SessionID = id
	out.StartTime = m.StartTime.UTC()
	out.EndTime = m.EndTime.UTC()
	out.CreationTime = now
	out.UpdateTime = now
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO sessions (user_id, session_id, title, session_type, start_time, end_time,
                              priority, completed, completed_at, description, from_suggestion_id,
                              creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
    `, m.UserID, id, m.Title, m.Type, out.StartTime, out.EndTime,
		m.Priority, m.Completed, m.CompletedAt, m.Description, m.FromSuggestionID, now, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *sessions) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? AND session_id = ?
    `, userID, sessionID)
	out, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
		}
		return nil, err
	}
	return out, nil
}

func (s *sessions) List(ctx context.Context, req model.ListSessionsRequest) ([]*model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ?`
	args := []interface{}{req.UserID}
	if !req.IncludeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	if !req.From.IsZero() {
		q += ` AND end_time > ?`
		args = append(args, req.From.UTC())
	}
	if !req.To.IsZero() {
		q += ` AND start_time < ?`
		args = append(args, req.To.UTC())
	}
	q += ` ORDER BY start_time, session_id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sessions) Update(ctx context.Context, m *model.Session, allowConflicts bool) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := overlapping(ctx, tx, m.UserID, m.StartTime, m.EndTime, m.SessionID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !allowConflicts {
		return nil, &model.ConflictError{Conflicts: conflicts}
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
        UPDATE sessions
        SET title = ?, session_type = ?, start_time = ?, end_time = ?, priority = ?, description = ?, update_time = ?
        WHERE user_id = ? AND session_id = ? AND deleted_at IS NULL
    `, m.Title, m.Type, m.StartTime.UTC(), m.EndTime.UTC(), m.Priority, m.Description, now, m.UserID, m.SessionID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, m.SessionID)
	}
	out, err := getTx(ctx, tx, m.UserID, m.SessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sessions) SetCompleted(ctx context.Context, userID, sessionID string, completed bool, at time.Time) (*model.Session, error) {
	var completedAt *time.Time
	if completed {
		t := at.UTC()
		completedAt = &t
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
        UPDATE sessions SET completed = ?, completed_at = ?, update_time = ?
        WHERE user_id = ? AND session_id = ? AND deleted_at IS NULL
    `, completed, completedAt, now, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	return s.Get(ctx, userID, sessionID)
}

func (s *sessions) SoftDelete(ctx context.Context, userID, sessionID string, at time.Time) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
        UPDATE sessions SET deleted_at = ?, update_time = ?
        WHERE user_id = ? AND session_id = ? AND deleted_at IS NULL
    `, at.UTC(), now, userID, sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	return nil
}

// helpers

// overlapping returns live sessions whose [start_time, end_time) interval
// overlaps [start, end). Sessions touching only at an endpoint do not count.
func overlapping(ctx context.Context, tx *sql.Tx, userID string, start, end time.Time, excludeID string) ([]model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions
        WHERE user_id = ? AND deleted_at IS NULL AND start_time < ? AND end_time > ?`
	args := []interface{}{userID, end.UTC(), start.UTC()}
	if excludeID != "" {
		q += ` AND session_id <> ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY start_time, session_id`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Session
	for rows.Next() {
		m, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func getTx(ctx context.Context, tx *sql.Tx, userID, sessionID string) (*model.Session, error) {
	row := tx.QueryRowContext(ctx, `
        SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? AND session_id = ?
    `, userID, sessionID)
	return scanSession(row)
}

func scanSession(row interface {
	Scan(dest ...interface{}) error
}) (*model.Session, error) {
	var m model.Session
	var completedAt, deletedAt sql.NullTime
	if err := row.Scan(&m.UserID, &m.SessionID, &m.Title, &m.Type, &m.StartTime, &m.EndTime, &m.Priority,
		&m.Completed, &completedAt, &m.Description, &m.FromSuggestionID, &deletedAt, &m.CreationTime, &m.UpdateTime); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		m.CompletedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		m.DeletedAt = &t
	}
	m.StartTime = m.StartTime.UTC()
	m.EndTime = m.EndTime.UTC()
	m.CreationTime = m.CreationTime.UTC()
	m.UpdateTime = m.UpdateTime.UTC()
	return &m, nil
}
