package services

import (
	"context"
	"fmt"

	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// AvailabilityService manages the recurring weekly windows a user is
// willing to be scheduled into.
type AvailabilityService struct {
	store store.Store
}

func NewAvailabilityService(s store.Store) *AvailabilityService {
	return &AvailabilityService{store: s}
}

// AddWindow validates and persists a weekly window for an existing user.
func (s *AvailabilityService) AddWindow(ctx context.Context, w *model.AvailabilityWindow) (*model.AvailabilityWindow, error) {
	if !w.DayOfWeek.Valid() {
		return nil, fmt.Errorf("%w: unknown weekday %q", model.ErrValidation, string(w.DayOfWeek))
	}
	if w.StartTime < 0 || w.EndTime > model.MinutesPerDay || w.StartTime >= w.EndTime {
		return nil, fmt.Errorf("%w: window must satisfy 00:00 <= start < end <= 24:00", model.ErrValidation)
	}
	if _, err := s.store.Users().Get(ctx, w.UserID); err != nil {
		return nil, wrapStore(err)
	}
	created, err := s.store.Windows().Create(ctx, w)
	if err != nil {
		return nil, wrapStore(err)
	}
	return created, nil
}

// ListWindows returns the user's windows in calendar order.
func (s *AvailabilityService) ListWindows(ctx context.Context, userID string) ([]*model.AvailabilityWindow, error) {
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, wrapStore(err)
	}
	ws, err := s.store.Windows().List(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}
	return ws, nil
}

func (s *AvailabilityService) RemoveWindow(ctx context.Context, userID, windowID string) error {
	return wrapStore(s.store.Windows().Delete(ctx, userID, windowID))
}
