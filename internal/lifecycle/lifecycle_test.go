package lifecycle

import (
	"errors"
	"testing"
)

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		status            Status
		canEdit           bool
		canConfirmWines   bool
		canConfirmDinner  bool
		canGenerateInvite bool
		canComplete       bool
		canRegenerate     bool
	}{
		{StatusPlanning, true, true, false, false, false, true},
		{StatusWinesConfirmed, false, false, true, false, false, false},
		{StatusConfirmed, false, false, false, true, true, false},
		{StatusCompleted, false, false, false, true, false, false},
		{StatusCancelled, false, false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := CanEditDishes(tt.status); got != tt.canEdit {
				t.Errorf("CanEditDishes = %v, want %v", got, tt.canEdit)
			}
			if got := CanConfirmWines(tt.status, 2); got != tt.canConfirmWines {
				t.Errorf("CanConfirmWines = %v, want %v", got, tt.canConfirmWines)
			}
			if got := CanConfirmDinner(tt.status); got != tt.canConfirmDinner {
				t.Errorf("CanConfirmDinner = %v, want %v", got, tt.canConfirmDinner)
			}
			if got := CanGenerateInvite(tt.status); got != tt.canGenerateInvite {
				t.Errorf("CanGenerateInvite = %v, want %v", got, tt.canGenerateInvite)
			}
			if got := CanCompleteDinner(tt.status, 1); got != tt.canComplete {
				t.Errorf("CanCompleteDinner = %v, want %v", got, tt.canComplete)
			}
			if got := CanRegenerateMenu(tt.status); got != tt.canRegenerate {
				t.Errorf("CanRegenerateMenu = %v, want %v", got, tt.canRegenerate)
			}
		})
	}
}

func TestConfirmWinesNeedsPairings(t *testing.T) {
	if CanConfirmWines(StatusPlanning, 0) {
		t.Fatal("confirmWines should require at least one pairing")
	}
	if _, err := ConfirmWines(StatusPlanning, 0); err == nil {
		t.Fatal("expected violation without pairings")
	}
	next, err := ConfirmWines(StatusPlanning, 2)
	if err != nil {
		t.Fatalf("ConfirmWines: %v", err)
	}
	if next != StatusWinesConfirmed {
		t.Fatalf("next = %s", next)
	}
	if CanEditDishes(next) {
		t.Fatal("dish edits must be locked after confirming wines")
	}
}

func TestConfirmDinnerOnlyFromWinesConfirmed(t *testing.T) {
	for _, s := range []Status{StatusPlanning, StatusConfirmed, StatusCompleted, StatusCancelled} {
		_, err := ConfirmDinner(s)
		var violation *Violation
		if !errors.As(err, &violation) {
			t.Errorf("ConfirmDinner from %s: want Violation, got %v", s, err)
		}
	}
	next, err := ConfirmDinner(StatusWinesConfirmed)
	if err != nil || next != StatusConfirmed {
		t.Fatalf("ConfirmDinner from winesConfirmed: next=%s err=%v", next, err)
	}
}

func TestCompleteDinnerRequiresConfirmedWines(t *testing.T) {
	if _, err := CompleteDinner(StatusConfirmed, 0); err == nil {
		t.Fatal("expected violation with no confirmed wines")
	}
	next, err := CompleteDinner(StatusConfirmed, 3)
	if err != nil || next != StatusCompleted {
		t.Fatalf("CompleteDinner: next=%s err=%v", next, err)
	}
}

func TestCancelFromEveryState(t *testing.T) {
	for _, s := range []Status{StatusPlanning, StatusWinesConfirmed, StatusConfirmed} {
		next, err := Cancel(s)
		if err != nil || next != StatusCancelled {
			t.Errorf("Cancel from %s: next=%s err=%v", s, next, err)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		_, err := Cancel(s)
		var violation *Violation
		if !errors.As(err, &violation) {
			t.Errorf("Cancel from terminal %s: want Violation, got %v", s, err)
		}
	}
}

func TestViolationMessageNamesOpAndState(t *testing.T) {
	_, err := ConfirmDinner(StatusPlanning)
	if err == nil || err.Error() != "lifecycle: cannot confirmDinner from planning" {
		t.Fatalf("unexpected violation message: %v", err)
	}
}

func TestCollaborationTransitions(t *testing.T) {
	tests := []struct {
		from, to CollabState
		ok       bool
	}{
		{CollabOpenForProposals, CollabVoting, true},
		{CollabOpenForProposals, CollabLocked, true},
		{CollabVoting, CollabLocked, true},
		{CollabVoting, CollabOpenForProposals, false},
		{CollabLocked, CollabVoting, false},
		{CollabLocked, CollabOpenForProposals, false},
	}
	for _, tt := range tests {
		next, err := AdvanceCollaboration(tt.from, tt.to)
		if tt.ok && (err != nil || next != tt.to) {
			t.Errorf("%s -> %s: next=%s err=%v", tt.from, tt.to, next, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s -> %s: expected violation", tt.from, tt.to)
		}
	}
}

func TestCollaborationGates(t *testing.T) {
	for _, cs := range []CollabState{CollabOpenForProposals, CollabVoting} {
		if !AllowsProposals(cs) || !AllowsVoting(cs) {
			t.Errorf("%s should allow proposals and voting", cs)
		}
	}
	if AllowsProposals(CollabLocked) || AllowsVoting(CollabLocked) {
		t.Error("locked must freeze proposals and voting")
	}
}
