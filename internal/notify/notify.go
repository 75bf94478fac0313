// Package notify defines the notification collaborator contract. The core
// computes when and what to remind; registering, delivering, or surfacing the
// reminder to a device is the collaborator's business.
package notify

import (
	"context"
	"time"
)

// ReminderKind distinguishes the three reminder payloads the scheduler issues.
type ReminderKind string

const (
	KindCoolDown  ReminderKind = "cool_down"
	KindRemove    ReminderKind = "remove"
	KindPostEvent ReminderKind = "post_event"
)

// Reminder is the payload registered with the collaborator.
type Reminder struct {
	EventID string       `json:"event_id"`
	WineID  string       `json:"wine_id,omitempty"`
	Kind    ReminderKind `json:"kind"`
	Title   string       `json:"title"`
	Body    string       `json:"body"`
	At      time.Time    `json:"at"`
}

// Notifier is the contract consumed by the scheduler. ScheduleReminder
// returns an opaque token the caller stores for later cancellation;
// CancelReminder of an unknown token must not error.
type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	ScheduleReminder(ctx context.Context, at time.Time, reminder Reminder) (string, error)
	CancelReminder(ctx context.Context, token string) error
}
