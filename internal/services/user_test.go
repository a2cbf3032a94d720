package services

import (
	"context"
	"errors"
	"testing"

	"github.com/routinely/routinely-server/internal/model"
)

func TestCreateUserValidation(t *testing.T) {
	svc := NewUserService(newFakeStore())

	if _, err := svc.CreateUser(context.Background(), &model.User{Email: "  "}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for blank email, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), &model.User{Email: "a@b.c", TimeZone: "Mars/Olympus"}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for unknown zone, got %v", err)
	}
}

func TestCreateUserDefaultsTimeZone(t *testing.T) {
	svc := NewUserService(newFakeStore())

	created, err := svc.CreateUser(context.Background(), &model.User{Email: "a@b.c"})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if created.TimeZone != "UTC" {
		t.Fatalf("time zone = %q, want UTC", created.TimeZone)
	}
	if created.UserID == "" || created.CreationTime.IsZero() {
		t.Fatalf("store fields not populated: %+v", created)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := NewUserService(newFakeStore())
	if _, err := svc.GetUser(context.Background(), "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewUserService(fs)

	if err := svc.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteUser error: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), "u1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}
