package ledger

import (
	"errors"
	"testing"
	"time"

	"convivio/api/internal/store"
)

func newProposal() *store.Proposal {
	return &store.Proposal{ID: "prop_1", EventID: "evt_1", Course: "main", DishName: "Brasato al Barolo"}
}

func TestCastVoteCreatesSingleVote(t *testing.T) {
	p := newProposal()
	if out := CastVote(p, "u1", "Anna", true); out != VoteCast {
		t.Fatalf("outcome = %v, want VoteCast", out)
	}
	if len(p.Votes) != 1 {
		t.Fatalf("vote count = %d", len(p.Votes))
	}
	if Score(p) != 1 {
		t.Fatalf("score = %d", Score(p))
	}
}

func TestCastVoteFlipsInPlace(t *testing.T) {
	p := newProposal()
	CastVote(p, "u1", "Anna", true)
	if out := CastVote(p, "u1", "Anna", false); out != VoteFlipped {
		t.Fatalf("outcome = %v, want VoteFlipped", out)
	}
	if len(p.Votes) != 1 {
		t.Fatalf("flip must not add a second vote, count = %d", len(p.Votes))
	}
	if Score(p) != -1 {
		t.Fatalf("score = %d, want -1", Score(p))
	}
}

func TestCastVoteTogglesToRetract(t *testing.T) {
	p := newProposal()
	CastVote(p, "u1", "Anna", true)
	if out := CastVote(p, "u1", "Anna", true); out != VoteRetracted {
		t.Fatalf("outcome = %v, want VoteRetracted", out)
	}
	if len(p.Votes) != 0 {
		t.Fatalf("retract must delete the vote, count = %d", len(p.Votes))
	}
	if Score(p) != 0 {
		t.Fatalf("score = %d, want 0", Score(p))
	}
}

func TestAtMostOneVotePerVoterUnderAnySequence(t *testing.T) {
	p := newProposal()
	sequence := []bool{true, false, false, true, true, false, true}
	for _, up := range sequence {
		CastVote(p, "u1", "Anna", up)
		if len(p.Votes) > 1 {
			t.Fatalf("vote collection grew past one: %d", len(p.Votes))
		}
	}
}

func TestScoreEqualsUpMinusDown(t *testing.T) {
	p := newProposal()
	CastVote(p, "u1", "Anna", true)
	CastVote(p, "u2", "Bruno", true)
	CastVote(p, "u3", "Carla", false)
	if up, down := Upvotes(p), Downvotes(p); up != 2 || down != 1 {
		t.Fatalf("up=%d down=%d", up, down)
	}
	if Score(p) != 1 {
		t.Fatalf("score = %d, want 1", Score(p))
	}
}

func TestAddCommentRejectsBlankText(t *testing.T) {
	p := newProposal()
	_, err := AddComment(p, "u1", "Anna", "   ")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(p.Comments) != 0 {
		t.Fatalf("comment count changed: %d", len(p.Comments))
	}
}

func TestAddCommentTrimsAndAppends(t *testing.T) {
	p := newProposal()
	comment, err := AddComment(p, "u1", "Anna", "  serve with polenta  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if comment.Text != "serve with polenta" {
		t.Fatalf("text = %q", comment.Text)
	}
	if len(p.Comments) != 1 {
		t.Fatalf("comment count = %d", len(p.Comments))
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	p := newProposal()
	base := time.Now()
	p.Comments = []store.Comment{
		{ID: "a", CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "b", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(-time.Hour)},
	}
	ordered := CommentsNewestFirst(p)
	if ordered[0].ID != "b" || ordered[1].ID != "c" || ordered[2].ID != "a" {
		t.Fatalf("order = %s %s %s", ordered[0].ID, ordered[1].ID, ordered[2].ID)
	}
}

func TestRankDescendingWithStableTies(t *testing.T) {
	first := store.Proposal{ID: "p1"}
	second := store.Proposal{ID: "p2", Votes: map[string]store.Vote{
		"u1": {VoterID: "u1", Upvote: true},
		"u2": {VoterID: "u2", Upvote: true},
	}}
	third := store.Proposal{ID: "p3"}
	ranked := Rank([]store.Proposal{first, second, third})
	if ranked[0].ID != "p2" {
		t.Fatalf("top = %s, want p2", ranked[0].ID)
	}
	// p1 and p3 tie at zero; insertion order is kept.
	if ranked[1].ID != "p1" || ranked[2].ID != "p3" {
		t.Fatalf("tie order = %s %s", ranked[1].ID, ranked[2].ID)
	}
}
