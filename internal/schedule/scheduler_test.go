package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"convivio/api/internal/notify"
	"convivio/api/internal/store"
	"convivio/api/internal/temperature"
)

type fakeNotifier struct {
	granted   bool
	failAfter int // fail the Nth ScheduleReminder call (1-based), 0 = never

	calls     int
	scheduled map[string]notify.Reminder
	cancelled []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{granted: true, scheduled: map[string]notify.Reminder{}}
}

func (f *fakeNotifier) RequestPermission(ctx context.Context) (bool, error) {
	return f.granted, nil
}

func (f *fakeNotifier) ScheduleReminder(ctx context.Context, at time.Time, r notify.Reminder) (string, error) {
	f.calls++
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return "", errors.New("registry unavailable")
	}
	token := fmt.Sprintf("tok_%d", f.calls)
	r.At = at
	f.scheduled[token] = r
	return token, nil
}

func (f *fakeNotifier) CancelReminder(ctx context.Context, token string) error {
	f.cancelled = append(f.cancelled, token)
	delete(f.scheduled, token)
	return nil
}

func dinnerAt(serve time.Time) *store.Event {
	return &store.Event{
		ID:    "evt_1",
		Title: "Saturday dinner",
		Date:  serve,
		Wines: []store.ConfirmedWine{
			{ID: "cw_sparkling", Name: "Franciacorta", Quantity: 2, Category: temperature.Sparkling},
			{ID: "cw_white", Name: "Verdicchio Riserva", Quantity: 1, Category: temperature.StructuredWhite},
			{ID: "cw_red", Name: "Barolo", Quantity: 1, Category: temperature.StructuredRed},
		},
	}
}

func TestPlanTimesAndOrdering(t *testing.T) {
	serve := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	entries := Plan(dinnerAt(serve).Wines, serve)

	// Structured red needs no cooling and is excluded.
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}

	// Sparkling leads by three hours, so it comes first.
	if entries[0].WineID != "cw_sparkling" {
		t.Fatalf("first entry = %s", entries[0].WineID)
	}
	if want := serve.Add(-3 * time.Hour); !entries[0].PutIn.Equal(want) {
		t.Errorf("sparkling put-in = %v, want %v", entries[0].PutIn, want)
	}
	if entries[0].TakeOut != nil {
		t.Error("sparkling is served straight from the fridge, want no take-out")
	}

	if entries[1].WineID != "cw_white" {
		t.Fatalf("second entry = %s", entries[1].WineID)
	}
	if entries[1].TakeOut == nil {
		t.Fatal("structured white warms up before serving, want a take-out time")
	}
	if want := serve.Add(-30 * time.Minute); !entries[1].TakeOut.Equal(want) {
		t.Errorf("white take-out = %v, want %v", entries[1].TakeOut, want)
	}
}

func TestPlanSkipsZeroQuantity(t *testing.T) {
	serve := time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC)
	wines := []store.ConfirmedWine{
		{ID: "cw_1", Name: "Franciacorta", Quantity: 0, Category: temperature.Sparkling},
	}
	if entries := Plan(wines, serve); len(entries) != 0 {
		t.Fatalf("entry count = %d, want 0", len(entries))
	}
}

func TestScheduleIssuesTokensAndMarksEvent(t *testing.T) {
	notifier := newFakeNotifier()
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC))

	if err := scheduler.Schedule(context.Background(), event); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if !event.NotificationsScheduled {
		t.Error("event not marked as scheduled")
	}
	if event.PostEventToken == nil {
		t.Fatal("no post-event token")
	}
	post, ok := notifier.scheduled[*event.PostEventToken]
	if !ok {
		t.Fatal("post-event token not registered")
	}
	if want := event.Date.Add(4 * time.Hour); !post.At.Equal(want) {
		t.Errorf("post-event at = %v, want %v", post.At, want)
	}

	// Sparkling: cool-down only. Structured white: cool-down and take-out.
	// Structured red: nothing.
	for _, wine := range event.Wines {
		switch wine.ID {
		case "cw_sparkling":
			if wine.CoolDownToken == nil || wine.RemoveToken != nil {
				t.Errorf("sparkling tokens = %v/%v", wine.CoolDownToken, wine.RemoveToken)
			}
		case "cw_white":
			if wine.CoolDownToken == nil || wine.RemoveToken == nil {
				t.Errorf("white tokens = %v/%v", wine.CoolDownToken, wine.RemoveToken)
			}
		case "cw_red":
			if wine.CoolDownToken != nil || wine.RemoveToken != nil {
				t.Errorf("red should carry no tokens")
			}
		}
	}
}

func TestScheduleRejectsEmptyPlan(t *testing.T) {
	notifier := newFakeNotifier()
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := &store.Event{
		ID:    "evt_1",
		Title: "Saturday dinner",
		Date:  time.Now().Add(48 * time.Hour),
		Wines: []store.ConfirmedWine{
			{ID: "cw_red", Name: "Barolo", Quantity: 2, Category: temperature.StructuredRed},
			{ID: "cw_sparkling", Name: "Franciacorta", Quantity: 0, Category: temperature.Sparkling},
		},
	}

	err := scheduler.Schedule(context.Background(), event)
	if !errors.Is(err, ErrNothingToSchedule) {
		t.Fatalf("err = %v, want ErrNothingToSchedule", err)
	}
	if event.NotificationsScheduled || event.PostEventToken != nil {
		t.Error("empty plan must not mark the event")
	}
	if notifier.calls != 0 {
		t.Errorf("reminders registered despite empty plan: %d", notifier.calls)
	}
}

func TestScheduleDeniedPermissionLeavesEventUntouched(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.granted = false
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Now().Add(48 * time.Hour))

	err := scheduler.Schedule(context.Background(), event)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if event.NotificationsScheduled || event.PostEventToken != nil {
		t.Error("denied permission must not mark the event")
	}
	if len(notifier.scheduled) != 0 {
		t.Errorf("reminders registered despite denial: %d", len(notifier.scheduled))
	}
}

func TestScheduleRollsBackOnPartialFailure(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.failAfter = 3 // sparkling and the white's cool-down succeed, then boom
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Now().Add(48 * time.Hour))

	err := scheduler.Schedule(context.Background(), event)
	if err == nil {
		t.Fatal("expected scheduling failure")
	}
	var schedErr *SchedulingError
	if !errors.As(err, &schedErr) {
		t.Fatalf("err = %T, want *SchedulingError", err)
	}
	if len(notifier.scheduled) != 0 {
		t.Errorf("tokens left registered after rollback: %d", len(notifier.scheduled))
	}
	if len(notifier.cancelled) != 2 {
		t.Errorf("cancelled %d tokens, want 2", len(notifier.cancelled))
	}
	if event.NotificationsScheduled || event.PostEventToken != nil {
		t.Error("failed scheduling must not mark the event")
	}
	for _, wine := range event.Wines {
		if wine.CoolDownToken != nil || wine.RemoveToken != nil {
			t.Errorf("wine %s kept a token after rollback", wine.ID)
		}
	}
}

func TestScheduleTwiceIsRejected(t *testing.T) {
	notifier := newFakeNotifier()
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Now().Add(48 * time.Hour))

	if err := scheduler.Schedule(context.Background(), event); err != nil {
		t.Fatalf("first Schedule: %v", err)
	}
	if err := scheduler.Schedule(context.Background(), event); !errors.Is(err, ErrAlreadyScheduled) {
		t.Fatalf("second Schedule err = %v, want ErrAlreadyScheduled", err)
	}
}

func TestCancelClearsTokensAndIsIdempotent(t *testing.T) {
	notifier := newFakeNotifier()
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Now().Add(48 * time.Hour))

	if err := scheduler.Schedule(context.Background(), event); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := scheduler.Cancel(context.Background(), event); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if event.NotificationsScheduled || event.PostEventToken != nil {
		t.Error("cancel must clear the event's scheduling state")
	}
	if len(notifier.scheduled) != 0 {
		t.Errorf("reminders still registered: %d", len(notifier.scheduled))
	}

	cancelledOnce := len(notifier.cancelled)
	if err := scheduler.Cancel(context.Background(), event); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if len(notifier.cancelled) != cancelledOnce {
		t.Error("second cancel must not issue further cancellations")
	}
}

func TestCancelThenRescheduleSucceeds(t *testing.T) {
	notifier := newFakeNotifier()
	scheduler := NewScheduler(notifier, 4*time.Hour)
	event := dinnerAt(time.Now().Add(48 * time.Hour))

	if err := scheduler.Schedule(context.Background(), event); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := scheduler.Cancel(context.Background(), event); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := scheduler.Schedule(context.Background(), event); err != nil {
		t.Fatalf("reschedule after cancel: %v", err)
	}
	if !event.NotificationsScheduled {
		t.Error("event not marked after reschedule")
	}
}
