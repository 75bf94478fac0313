package store

import (
	"time"

	"convivio/api/internal/lifecycle"
	"convivio/api/internal/temperature"
)

// Event is one planned gathering, loaded and saved as an aggregate with its
// proposals, votes, comments and confirmed wines. Collaboration is nil for
// solo events.
type Event struct {
	ID                     string
	Title                  string
	Date                   time.Time
	GuestCount             int
	Occasion               string
	Status                 lifecycle.Status
	Collaboration          *lifecycle.CollabState
	NotificationsScheduled bool
	PostEventToken         *string
	CreatedBy              string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Proposals []Proposal
	Wines     []ConfirmedWine
}

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a candidate dish for one course. Votes are keyed by voter ID so
// the one-vote-per-voter invariant is structural. Its status is an editorial
// decision, informed by but independent of the vote score.
type Proposal struct {
	ID             string
	EventID        string
	Course         string
	DishName       string
	Description    string
	WineSuggestion string
	ProposedBy     string
	ProposedByName string
	Status         ProposalStatus
	CreatedAt      time.Time

	Votes    map[string]Vote
	Comments []Comment
}

type Vote struct {
	VoterID   string
	VoterName string
	Upvote    bool
	CastAt    time.Time
}

type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

type WineSource string

const (
	SourceCellar   WineSource = "fromCellar"
	SourcePurchase WineSource = "purchase"
)

// ConfirmedWine is a wine locked in for service. Quantity is the unit of
// "still wanted": zero excludes it from scheduling without losing the user's
// edits. The token fields hold whatever the notification collaborator
// returned; they are nil unless the event's NotificationsScheduled is true.
type ConfirmedWine struct {
	ID            string
	EventID       string
	Name          string
	Producer      string
	Course        string
	Source        WineSource
	Quantity      int
	Category      temperature.Category
	BottleID      *string
	CoolDownToken *string
	RemoveToken   *string
}

// CellarBottle is one catalogued bottle in the shared cellar.
type CellarBottle struct {
	ID            string
	Name          string
	Producer      string
	Region        string
	Vintage       int
	Quantity      int
	Category      temperature.Category
	LabelImageKey string
	AddedBy       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InviteLink is a shareable link to a confirmed dinner's invitation.
type InviteLink struct {
	ID           string
	EventID      string
	Token        string
	PasswordHash *string
	CreatedBy    string
	ExpiresAt    *time.Time
	AccessCount  int
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// MenuCommitInfo describes one revision in an event's menu history.
type MenuCommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}
