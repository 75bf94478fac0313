package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	registry, err := NewRedisRegistry("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	return registry, s
}

func TestNewRedisRegistry(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	registry, err := NewRedisRegistry("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisRegistry failed: %v", err)
	}
	defer registry.Close()

	ctx := context.Background()
	if err := registry.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestScheduleAndLookupReminder(t *testing.T) {
	registry, s := setupTestRegistry(t)
	defer registry.Close()
	defer s.Close()

	ctx := context.Background()
	at := time.Now().Add(3 * time.Hour)

	token, err := registry.ScheduleReminder(ctx, at, Reminder{
		EventID: "evt_1",
		WineID:  "cw_1",
		Kind:    KindCoolDown,
		Title:   "Chill the Franciacorta",
	})
	if err != nil {
		t.Fatalf("ScheduleReminder failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	reminder, err := registry.Lookup(ctx, token)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if reminder.EventID != "evt_1" || reminder.Kind != KindCoolDown {
		t.Errorf("lookup returned %+v", reminder)
	}
	if !reminder.At.Equal(at) {
		t.Errorf("at = %v, want %v", reminder.At, at)
	}
}

func TestReminderExpiresAfterGrace(t *testing.T) {
	registry, s := setupTestRegistry(t)
	defer registry.Close()
	defer s.Close()

	ctx := context.Background()
	at := time.Now().Add(time.Minute)

	token, err := registry.ScheduleReminder(ctx, at, Reminder{EventID: "evt_1", Kind: KindPostEvent})
	if err != nil {
		t.Fatalf("ScheduleReminder failed: %v", err)
	}

	// Past fire time plus the one-hour grace the registry was built with.
	s.FastForward(2 * time.Hour)

	if _, err := registry.Lookup(ctx, token); err == nil {
		t.Error("expected error for expired reminder, got nil")
	}
}

func TestCancelReminderRemovesEntry(t *testing.T) {
	registry, s := setupTestRegistry(t)
	defer registry.Close()
	defer s.Close()

	ctx := context.Background()

	token, err := registry.ScheduleReminder(ctx, time.Now().Add(time.Hour), Reminder{EventID: "evt_1", Kind: KindRemove})
	if err != nil {
		t.Fatalf("ScheduleReminder failed: %v", err)
	}

	if err := registry.CancelReminder(ctx, token); err != nil {
		t.Fatalf("CancelReminder failed: %v", err)
	}

	if _, err := registry.Lookup(ctx, token); err == nil {
		t.Error("expected error after cancel, got nil")
	}
}

func TestCancelUnknownTokenIsNotAnError(t *testing.T) {
	registry, s := setupTestRegistry(t)
	defer registry.Close()
	defer s.Close()

	ctx := context.Background()

	if err := registry.CancelReminder(ctx, "no-such-token"); err != nil {
		t.Errorf("CancelReminder for unknown token failed: %v", err)
	}
}

func TestRequestPermissionReflectsReachability(t *testing.T) {
	registry, s := setupTestRegistry(t)
	defer registry.Close()

	ctx := context.Background()

	granted, err := registry.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("RequestPermission failed: %v", err)
	}
	if !granted {
		t.Error("expected permission while redis is up")
	}

	s.Close()

	granted, err = registry.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("RequestPermission after close failed: %v", err)
	}
	if granted {
		t.Error("expected denied permission once redis is down")
	}
}
