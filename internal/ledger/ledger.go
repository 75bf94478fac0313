// Package ledger owns vote and comment bookkeeping for an event's proposals.
// Scores are recomputed from the vote set on every call, never cached.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"convivio/api/internal/store"
	"convivio/api/internal/util"
)

// Outcome tells the caller what CastVote did, so the change can be mirrored
// to the persistence collaborator.
type Outcome int

const (
	VoteCast Outcome = iota
	VoteFlipped
	VoteRetracted
)

// ValidationError covers rejected ledger input, e.g. a blank comment. The
// operation is a no-op and the proposal is unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: %s", e.Reason)
}

// CastVote applies toggle-to-retract semantics for one voter on one proposal:
// no existing vote creates one, the opposite polarity flips in place, the
// same polarity removes the vote.
func CastVote(p *store.Proposal, voterID, voterName string, upvote bool) Outcome {
	if p.Votes == nil {
		p.Votes = make(map[string]store.Vote)
	}
	existing, ok := p.Votes[voterID]
	switch {
	case !ok:
		p.Votes[voterID] = store.Vote{
			VoterID:   voterID,
			VoterName: voterName,
			Upvote:    upvote,
			CastAt:    time.Now(),
		}
		return VoteCast
	case existing.Upvote != upvote:
		existing.Upvote = upvote
		existing.CastAt = time.Now()
		p.Votes[voterID] = existing
		return VoteFlipped
	default:
		delete(p.Votes, voterID)
		return VoteRetracted
	}
}

// AddComment appends a timestamped remark. Whitespace-only text is rejected
// and the comment set is unchanged.
func AddComment(p *store.Proposal, authorID, authorName, text string) (store.Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return store.Comment{}, &ValidationError{Reason: "comment text is empty"}
	}
	comment := store.Comment{
		ID:         util.NewID("cmt"),
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       trimmed,
		CreatedAt:  time.Now(),
	}
	p.Comments = append(p.Comments, comment)
	return comment, nil
}

func Upvotes(p *store.Proposal) int {
	count := 0
	for _, vote := range p.Votes {
		if vote.Upvote {
			count++
		}
	}
	return count
}

func Downvotes(p *store.Proposal) int {
	count := 0
	for _, vote := range p.Votes {
		if !vote.Upvote {
			count++
		}
	}
	return count
}

func Score(p *store.Proposal) int {
	return Upvotes(p) - Downvotes(p)
}

// VoteOf returns the voter's current stance, if any.
func VoteOf(p *store.Proposal, voterID string) (store.Vote, bool) {
	vote, ok := p.Votes[voterID]
	return vote, ok
}

// Rank sorts proposals by score descending. Ties keep their existing relative
// order; the tiebreak carries no meaning.
func Rank(proposals []store.Proposal) []store.Proposal {
	ranked := make([]store.Proposal, len(proposals))
	copy(ranked, proposals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(&ranked[i]) > Score(&ranked[j])
	})
	return ranked
}

// CommentsNewestFirst returns comments ordered for display.
func CommentsNewestFirst(p *store.Proposal) []store.Comment {
	ordered := make([]store.Comment, len(p.Comments))
	copy(ordered, p.Comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	return ordered
}
