package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) Windows() store.Windows   { return &windows{db: s.db} }
func (s *pgStore) Sessions() store.Sessions { return &sessions{db: s.db} }

// HealthPing implements health.HealthPinger for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the tables if they do not exist. Session invariants
// (end after start, priority range, completion timestamp pairing, known
// activity types) are enforced here so no writer can produce rows that
// violate them.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            display_name TEXT,
            time_zone TEXT NOT NULL,
            creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS availability_windows (
            user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
            window_id TEXT NOT NULL,
            day_of_week TEXT NOT NULL CHECK (day_of_week IN ('MON','TUE','WED','THU','FRI','SAT','SUN')),
            start_minute INT NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
            end_minute INT NOT NULL CHECK (end_minute > start_minute AND end_minute <= 1440),
            creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (user_id, window_id)
        )`,
		`CREATE TABLE IF NOT EXISTS sessions (
            user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
            session_id TEXT NOT NULL,
            title TEXT NOT NULL,
            session_type TEXT NOT NULL CHECK (session_type IN
                ('deep_work','workout','meditation','learning','reading','social','chores','rest')),
            start_time TIMESTAMPTZ NOT NULL,
            end_time TIMESTAMPTZ NOT NULL CHECK (end_time > start_time),
            priority INT NOT NULL CHECK (priority BETWEEN 1 AND 5),
            completed BOOLEAN NOT NULL DEFAULT FALSE,
            completed_at TIMESTAMPTZ,
            description TEXT,
            from_suggestion_id TEXT,
            deleted_at TIMESTAMPTZ,
            creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
            update_time TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (user_id, session_id),
            CHECK (completed = (completed_at IS NOT NULL))
        )`,
		`CREATE INDEX IF NOT EXISTS sessions_user_start_idx ON sessions (user_id, start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Bootstrap opens the database, creates the schema and closes the
// connection. Used as a one-shot startup step before the store is built.
func Bootstrap(ctx context.Context, dsn string) error {
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return EnsureSchema(ctx, db)
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	id := m.UserID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, m.Email, m.DisplayName, m.TimeZone)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.UserID = id
	out.CreationTime = created.UTC()
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, creation_time
        FROM users WHERE user_id=$1
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
	// Windows and sessions go with the user via ON DELETE CASCADE.
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE user_id=$1`, userID)
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
	var created time.Time
	row := w.db.QueryRowContext(ctx, `
        INSERT INTO availability_windows (user_id, window_id, day_of_week, start_minute, end_minute)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING creation_time
    `, m.UserID, id, m.DayOfWeek, int(m.StartTime), int(m.EndTime))
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.WindowID = id
	out.CreationTime = created.UTC()
	return &out, nil
}

func (w *windows) List(ctx context.Context, userID string) ([]*model.AvailabilityWindow, error) {
	rows, err := w.db.QueryContext(ctx, `
        SELECT window_id, day_of_week, start_minute, end_minute, creation_time
        FROM availability_windows WHERE user_id=$1
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
	res, err := w.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE user_id=$1 AND window_id=$2`, userID, windowID)
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
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockUserSchedule(ctx, tx, m.UserID); err != nil {
		return nil, err
	}
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
	out := *m
	out.SessionID = id
	out.StartTime = m.StartTime.UTC()
	out.EndTime = m.EndTime.UTC()
	row := tx.QueryRowContext(ctx, `
        INSERT INTO sessions (user_id, session_id, title, session_type, start_time, end_time,
                              priority, completed, completed_at, description, from_suggestion_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING creation_time, update_time
    `, m.UserID, id, m.Title, m.Type, out.StartTime, out.EndTime,
		m.Priority, m.Completed, m.CompletedAt, m.Description, m.FromSuggestionID)
	if err := row.Scan(&out.CreationTime, &out.UpdateTime); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out.CreationTime = out.CreationTime.UTC()
	out.UpdateTime = out.UpdateTime.UTC()
	return &out, nil
}

func (s *sessions) Get(ctx context.Context, userID, sessionID string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT `+sessionColumns+` FROM sessions WHERE user_id=$1 AND session_id=$2
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
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id=$1`
	args := []interface{}{req.UserID}
	if !req.IncludeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	if !req.From.IsZero() {
		args = append(args, req.From.UTC())
		q += fmt.Sprintf(` AND end_time > $%d`, len(args))
	}
	if !req.To.IsZero() {
		args = append(args, req.To.UTC())
		q += fmt.Sprintf(` AND start_time < $%d`, len(args))
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
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockUserSchedule(ctx, tx, m.UserID); err != nil {
		return nil, err
	}
	conflicts, err := overlapping(ctx, tx, m.UserID, m.StartTime, m.EndTime, m.SessionID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 && !allowConflicts {
		return nil, &model.ConflictError{Conflicts: conflicts}
	}

	row := tx.QueryRowContext(ctx, `
        UPDATE sessions
        SET title=$3, session_type=$4, start_time=$5, end_time=$6, priority=$7, description=$8, update_time=now()
        WHERE user_id=$1 AND session_id=$2 AND deleted_at IS NULL
        RETURNING `+sessionColumns+`
    `, m.UserID, m.SessionID, m.Title, m.Type, m.StartTime.UTC(), m.EndTime.UTC(), m.Priority, m.Description)
	out, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, m.SessionID)
		}
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
	row := s.db.QueryRowContext(ctx, `
        UPDATE sessions SET completed=$3, completed_at=$4, update_time=now()
        WHERE user_id=$1 AND session_id=$2 AND deleted_at IS NULL
        RETURNING `+sessionColumns+`
    `, userID, sessionID, completed, completedAt)
	out, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
		}
		return nil, err
	}
	return out, nil
}

func (s *sessions) SoftDelete(ctx context.Context, userID, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE sessions SET deleted_at=$3, update_time=now()
        WHERE user_id=$1 AND session_id=$2 AND deleted_at IS NULL
    `, userID, sessionID, at.UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", model.ErrNotFound, sessionID)
	}
	return nil
}

// helpers

// lockUserSchedule serializes schedule writes for one user inside the
// surrounding transaction. The advisory lock is released at commit or
// rollback, so the overlap probe and the write behave as one atomic step.
func lockUserSchedule(ctx context.Context, tx *sql.Tx, userID string) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(h.Sum64()))
	return err
}

// overlapping returns live sessions whose [start_time, end_time) interval
// overlaps [start, end). Sessions touching only at an endpoint do not count.
func overlapping(ctx context.Context, tx *sql.Tx, userID string, start, end time.Time, excludeID string) ([]model.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions
        WHERE user_id=$1 AND deleted_at IS NULL AND start_time < $2 AND end_time > $3`
	args := []interface{}{userID, end.UTC(), start.UTC()}
	if excludeID != "" {
		args = append(args, excludeID)
		q += ` AND session_id <> $4`
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
