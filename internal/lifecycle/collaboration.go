package lifecycle

// CollabState is the sub-machine gating multi-participant proposal and voting
// activity. It only exists on shared events and is advanced manually by a
// participant holding the change-collaboration-state capability; the
// application never auto-advances it.
type CollabState string

const (
	CollabOpenForProposals CollabState = "openForProposals"
	CollabVoting           CollabState = "voting"
	CollabLocked           CollabState = "locked"
)

var collabEdges = map[CollabState][]CollabState{
	CollabOpenForProposals: {CollabVoting, CollabLocked},
	CollabVoting:           {CollabLocked},
}

func ValidCollabState(cs CollabState) bool {
	switch cs {
	case CollabOpenForProposals, CollabVoting, CollabLocked:
		return true
	}
	return false
}

// AdvanceCollaboration checks the forward-only edge set. Once locked, the
// proposal set for the event is frozen.
func AdvanceCollaboration(from, to CollabState) (CollabState, error) {
	for _, next := range collabEdges[from] {
		if next == to {
			return to, nil
		}
	}
	return from, &Violation{Op: "setCollaborationState " + string(to), From: Status(from)}
}

// AllowsProposals reports whether new proposals may be entered.
func AllowsProposals(cs CollabState) bool {
	return cs == CollabOpenForProposals || cs == CollabVoting
}

// AllowsVoting covers both voting and commenting.
func AllowsVoting(cs CollabState) bool {
	return cs == CollabOpenForProposals || cs == CollabVoting
}
