package store

import (
	"context"
	"time"

	"github.com/routinely/routinely-server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
//
// Missing rows surface as errors wrapping model.ErrNotFound so callers never
// depend on driver-specific sentinels.
type Store interface {
	Users() Users
	Windows() Windows
	Sessions() Sessions
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

// Windows manages a user's recurring weekly availability windows.
type Windows interface {
	Create(ctx context.Context, w *model.AvailabilityWindow) (*model.AvailabilityWindow, error)
	List(ctx context.Context, userID string) ([]*model.AvailabilityWindow, error)
	Delete(ctx context.Context, userID, windowID string) error
}

// Sessions manages scheduled sessions. Create and Update run the overlap
// probe and the row write inside one transaction so two concurrent writes
// cannot both pass the check; when the interval overlaps a live session and
// allowConflicts is false they return *model.ConflictError.
type Sessions interface {
	Create(ctx context.Context, s *model.Session, allowConflicts bool) (*model.Session, error)
	Get(ctx context.Context, userID, sessionID string) (*model.Session, error)
	// List returns sessions ordered by start time. A non-zero From/To pair
	// restricts the result to sessions overlapping [From, To).
	List(ctx context.Context, req model.ListSessionsRequest) ([]*model.Session, error)
	Update(ctx context.Context, s *model.Session, allowConflicts bool) (*model.Session, error)
	SetCompleted(ctx context.Context, userID, sessionID string, completed bool, at time.Time) (*model.Session, error)
	SoftDelete(ctx context.Context, userID, sessionID string, at time.Time) error
}
