package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/routinely/routinely-server/internal/model"
	"github.com/routinely/routinely-server/internal/store"
)

// UserService handles account operations.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// CreateUser validates and persists a new account. An empty time zone
// defaults to UTC; a non-empty one must name a loadable IANA location.
func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if strings.TrimSpace(u.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if u.TimeZone == "" {
		u.TimeZone = "UTC"
	}
	if _, err := time.LoadLocation(u.TimeZone); err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, u.TimeZone)
	}
	created, err := s.store.Users().Create(ctx, u)
	if err != nil {
		return nil, wrapStore(err)
	}
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, wrapStore(err)
	}
	return u, nil
}

// DeleteUser removes the account together with its windows and sessions.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return wrapStore(s.store.Users().Delete(ctx, userID))
}
