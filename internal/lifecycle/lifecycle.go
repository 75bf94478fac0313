// Package lifecycle implements the dinner event state machine. Predicates are
// pure functions of the current status plus the facts they need; nothing here
// is cached, so callers re-derive gates from current state on every read.
package lifecycle

import "fmt"

type Status string

const (
	StatusPlanning       Status = "planning"
	StatusWinesConfirmed Status = "winesConfirmed"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Violation reports an illegal transition attempt. It is always recoverable:
// the operation does not apply and the event is unchanged.
type Violation struct {
	Op   string
	From Status
}

func (v *Violation) Error() string {
	return fmt.Sprintf("lifecycle: cannot %s from %s", v.Op, v.From)
}

func Valid(s Status) bool {
	switch s {
	case StatusPlanning, StatusWinesConfirmed, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanEditDishes also gates wine edits; the menu is frozen once wines are
// confirmed.
func CanEditDishes(s Status) bool {
	return s == StatusPlanning
}

func CanConfirmWines(s Status, pairingCount int) bool {
	return s == StatusPlanning && pairingCount > 0
}

func CanConfirmDinner(s Status) bool {
	return s == StatusWinesConfirmed
}

func CanGenerateInvite(s Status) bool {
	return s == StatusConfirmed || s == StatusCompleted
}

func CanCompleteDinner(s Status, confirmedWineCount int) bool {
	return s == StatusConfirmed && confirmedWineCount > 0
}

func CanRegenerateMenu(s Status) bool {
	return s == StatusPlanning
}

// ConfirmWines moves planning -> winesConfirmed. It does not compute the wine
// schedule; temperature categories and quantities stay editable until the
// caller requests scheduling explicitly.
func ConfirmWines(s Status, pairingCount int) (Status, error) {
	if !CanConfirmWines(s, pairingCount) {
		return s, &Violation{Op: "confirmWines", From: s}
	}
	return StatusWinesConfirmed, nil
}

// ConfirmDinner moves winesConfirmed -> confirmed and freezes the menu.
func ConfirmDinner(s Status) (Status, error) {
	if !CanConfirmDinner(s) {
		return s, &Violation{Op: "confirmDinner", From: s}
	}
	return StatusConfirmed, nil
}

// CompleteDinner moves confirmed -> completed, requiring at least one
// confirmed wine (the post-event bottle unload flow triggers it).
func CompleteDinner(s Status, confirmedWineCount int) (Status, error) {
	if !CanCompleteDinner(s, confirmedWineCount) {
		return s, &Violation{Op: "completeDinner", From: s}
	}
	return StatusCompleted, nil
}

// Cancel is legal from any non-terminal state. Cancelling an already-terminal
// event is a Violation, not a silent no-op.
func Cancel(s Status) (Status, error) {
	if Terminal(s) {
		return s, &Violation{Op: "cancel", From: s}
	}
	return StatusCancelled, nil
}
