package services

import (
	"context"
	"errors"
	"testing"

	"github.com/routinely/routinely-server/internal/model"
)

func TestAddWindowValidation(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewAvailabilityService(fs)

	cases := map[string]*model.AvailabilityWindow{
		"unknown weekday": {UserID: "u1", DayOfWeek: "FUNDAY",
			StartTime: mustLocalTime(t, "07:00"), EndTime: mustLocalTime(t, "09:00")},
		"start after end": {UserID: "u1", DayOfWeek: model.Monday,
			StartTime: mustLocalTime(t, "09:00"), EndTime: mustLocalTime(t, "07:00")},
		"empty window": {UserID: "u1", DayOfWeek: model.Monday,
			StartTime: mustLocalTime(t, "07:00"), EndTime: mustLocalTime(t, "07:00")},
	}
	for name, w := range cases {
		if _, err := svc.AddWindow(context.Background(), w); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	ghost := &model.AvailabilityWindow{UserID: "ghost", DayOfWeek: model.Monday,
		StartTime: mustLocalTime(t, "07:00"), EndTime: mustLocalTime(t, "09:00")}
	if _, err := svc.AddWindow(context.Background(), ghost); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestAddAndListWindows(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	svc := NewAvailabilityService(fs)

	created, err := svc.AddWindow(context.Background(), &model.AvailabilityWindow{
		UserID:    "u1",
		DayOfWeek: model.Saturday,
		StartTime: mustLocalTime(t, "08:00"),
		EndTime:   mustLocalTime(t, "12:00"),
	})
	if err != nil {
		t.Fatalf("AddWindow error: %v", err)
	}
	if created.WindowID == "" {
		t.Fatalf("window id not assigned: %+v", created)
	}

	ws, err := svc.ListWindows(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListWindows error: %v", err)
	}
	if len(ws) != 1 || ws[0].WindowID != created.WindowID {
		t.Fatalf("unexpected windows: %+v", ws)
	}

	if _, err := svc.ListWindows(context.Background(), "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveWindow(t *testing.T) {
	fs := newFakeStore()
	fs.addUser("u1", "UTC")
	fs.addWindow("u1", model.Monday, mustLocalTime(t, "07:00"), mustLocalTime(t, "09:00"))
	svc := NewAvailabilityService(fs)

	ws, err := svc.ListWindows(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListWindows error: %v", err)
	}
	if err := svc.RemoveWindow(context.Background(), "u1", ws[0].WindowID); err != nil {
		t.Fatalf("RemoveWindow error: %v", err)
	}
	if err := svc.RemoveWindow(context.Background(), "u1", ws[0].WindowID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second remove should be not found, got %v", err)
	}
}
