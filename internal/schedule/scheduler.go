package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"convivio/api/internal/notify"
	"convivio/api/internal/store"
)

var (
	// ErrPermissionDenied means the collaborator refused to register
	// reminders. Nothing was scheduled and the event is unchanged.
	ErrPermissionDenied = errors.New("schedule: notification permission denied")

	// ErrAlreadyScheduled means the event already carries reminders. Cancel
	// them first, then schedule again.
	ErrAlreadyScheduled = errors.New("schedule: reminders already scheduled for this event")

	// ErrNothingToSchedule means no wine on the event needs cooling: every
	// bottle is either zero-quantity or served at cellar temperature.
	ErrNothingToSchedule = errors.New("schedule: no wine needs a cooling reminder")
)

// SchedulingError wraps a failed exchange with the notification collaborator.
// Registration failures roll back any tokens issued before the error, so the
// caller can retry once the registry recovers.
type SchedulingError struct {
	Op  string
	Err error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// Scheduler registers a dinner's cooling reminders with a notification
// collaborator. Scheduling is all-or-nothing: a failed registration rolls
// back every token issued so far.
type Scheduler struct {
	notifier       notify.Notifier
	postEventAfter time.Duration
}

func NewScheduler(notifier notify.Notifier, postEventAfter time.Duration) *Scheduler {
	if postEventAfter <= 0 {
		postEventAfter = 4 * time.Hour
	}
	return &Scheduler{notifier: notifier, postEventAfter: postEventAfter}
}

// Schedule computes the event's cooling plan and registers one reminder per
// timeline point, plus a post-dinner follow-up. An empty plan is rejected
// with ErrNothingToSchedule. On success it mutates the event in place: wine
// token fields, the post-event token, and NotificationsScheduled; the caller
// persists the result.
func (s *Scheduler) Schedule(ctx context.Context, event *store.Event) error {
	if event.NotificationsScheduled {
		return ErrAlreadyScheduled
	}

	entries := Plan(event.Wines, event.Date)
	if len(entries) == 0 {
		return ErrNothingToSchedule
	}

	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		return &SchedulingError{Op: "request notification permission", Err: err}
	}
	if !granted {
		return ErrPermissionDenied
	}

	type issued struct {
		wineID string
		kind   notify.ReminderKind
		token  string
	}
	var tokens []issued

	rollback := func() {
		for _, t := range tokens {
			// Best effort: a token that fails to cancel simply expires.
			_ = s.notifier.CancelReminder(ctx, t.token)
		}
	}

	for _, entry := range entries {
		token, err := s.notifier.ScheduleReminder(ctx, entry.PutIn, notify.Reminder{
			EventID: event.ID,
			WineID:  entry.WineID,
			Kind:    notify.KindCoolDown,
			Title:   fmt.Sprintf("Chill %s", entry.WineName),
			Body:    fmt.Sprintf("Put %s in the fridge for %s.", entry.WineName, event.Title),
		})
		if err != nil {
			rollback()
			return &SchedulingError{Op: "schedule cool-down reminder", Err: err}
		}
		tokens = append(tokens, issued{wineID: entry.WineID, kind: notify.KindCoolDown, token: token})

		if entry.TakeOut != nil {
			token, err := s.notifier.ScheduleReminder(ctx, *entry.TakeOut, notify.Reminder{
				EventID: event.ID,
				WineID:  entry.WineID,
				Kind:    notify.KindRemove,
				Title:   fmt.Sprintf("Take out %s", entry.WineName),
				Body:    fmt.Sprintf("Take %s out of the fridge so it warms up before serving.", entry.WineName),
			})
			if err != nil {
				rollback()
				return &SchedulingError{Op: "schedule take-out reminder", Err: err}
			}
			tokens = append(tokens, issued{wineID: entry.WineID, kind: notify.KindRemove, token: token})
		}
	}

	postEventAt := event.Date.Add(s.postEventAfter)
	postEventToken, err := s.notifier.ScheduleReminder(ctx, postEventAt, notify.Reminder{
		EventID: event.ID,
		Kind:    notify.KindPostEvent,
		Title:   fmt.Sprintf("How was %s?", event.Title),
		Body:    "Rate the wines and note what to buy again.",
	})
	if err != nil {
		rollback()
		return &SchedulingError{Op: "schedule post-event reminder", Err: err}
	}

	for _, t := range tokens {
		for i := range event.Wines {
			if event.Wines[i].ID != t.wineID {
				continue
			}
			token := t.token
			switch t.kind {
			case notify.KindCoolDown:
				event.Wines[i].CoolDownToken = &token
			case notify.KindRemove:
				event.Wines[i].RemoveToken = &token
			}
		}
	}
	event.PostEventToken = &postEventToken
	event.NotificationsScheduled = true
	return nil
}

// Cancel withdraws every reminder the event holds and clears its tokens.
// Calling it on an event with nothing scheduled is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, event *store.Event) error {
	if !event.NotificationsScheduled && event.PostEventToken == nil {
		return nil
	}

	for i := range event.Wines {
		if t := event.Wines[i].CoolDownToken; t != nil {
			if err := s.notifier.CancelReminder(ctx, *t); err != nil {
				return &SchedulingError{Op: "cancel cool-down reminder", Err: err}
			}
			event.Wines[i].CoolDownToken = nil
		}
		if t := event.Wines[i].RemoveToken; t != nil {
			if err := s.notifier.CancelReminder(ctx, *t); err != nil {
				return &SchedulingError{Op: "cancel take-out reminder", Err: err}
			}
			event.Wines[i].RemoveToken = nil
		}
	}
	if event.PostEventToken != nil {
		if err := s.notifier.CancelReminder(ctx, *event.PostEventToken); err != nil {
			return &SchedulingError{Op: "cancel post-event reminder", Err: err}
		}
		event.PostEventToken = nil
	}
	event.NotificationsScheduled = false
	return nil
}
