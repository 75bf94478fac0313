package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"convivio/api/internal/config"
	"convivio/api/internal/export"
	"convivio/api/internal/labels"
	"convivio/api/internal/ledger"
	"convivio/api/internal/lifecycle"
	"convivio/api/internal/menurepo"
	"convivio/api/internal/roles"
	"convivio/api/internal/schedule"
	"convivio/api/internal/search"
	"convivio/api/internal/store"
	"convivio/api/internal/temperature"
	"convivio/api/internal/util"
)

// Participant identifies who is acting. Identity arrives via headers from the
// device app; roles are per-event assignments the client already resolved.
type Participant struct {
	ID   string
	Name string
	Role roles.Role
}

type CreateEventInput struct {
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	GuestCount    int       `json:"guestCount"`
	Occasion      string    `json:"occasion"`
	Collaborative bool      `json:"collaborative"`
}

type UpdateEventInput struct {
	Title      string `json:"title"`
	GuestCount int    `json:"guestCount"`
	Occasion   string `json:"occasion"`
}

type CreateProposalInput struct {
	Course         string `json:"course"`
	DishName       string `json:"dishName"`
	Description    string `json:"description"`
	WineSuggestion string `json:"wineSuggestion"`
}

type VoteInput struct {
	Upvote bool `json:"upvote"`
}

type CommentInput struct {
	Text string `json:"text"`
}

type AddWineInput struct {
	Name     string `json:"name"`
	Producer string `json:"producer"`
	Course   string `json:"course"`
	Source   string `json:"source"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	BottleID string `json:"bottleId"`
}

type UpdateWineInput struct {
	Quantity *int    `json:"quantity"`
	Category *string `json:"category"`
	Course   *string `json:"course"`
}

type dataStore interface {
	InsertEvent(context.Context, store.Event) error
	GetEvent(context.Context, string) (store.Event, error)
	ListEvents(context.Context) ([]store.Event, error)
	UpdateEventDetails(context.Context, string, string, int, string) error
	UpdateEventStatus(context.Context, string, lifecycle.Status) error
	UpdateCollaborationState(context.Context, string, lifecycle.CollabState) error
	SaveSchedulingState(context.Context, store.Event) error
	InsertProposal(context.Context, store.Proposal) error
	UpdateProposalStatus(context.Context, string, store.ProposalStatus) error
	UpsertVote(context.Context, string, store.Vote) error
	DeleteVote(context.Context, string, string) error
	InsertComment(context.Context, string, store.Comment) error
	InsertConfirmedWine(context.Context, store.ConfirmedWine) error
	UpdateConfirmedWine(context.Context, store.ConfirmedWine) error
	DeleteConfirmedWine(context.Context, string) error
	InsertBottle(context.Context, store.CellarBottle) error
	GetBottle(context.Context, string) (store.CellarBottle, error)
	ListBottles(context.Context) ([]store.CellarBottle, error)
	UpdateBottle(context.Context, store.CellarBottle) error
	DeleteBottle(context.Context, string) error
	AdjustBottleQuantity(context.Context, string, int) (bool, error)
	SetBottleLabelKey(context.Context, string, string) error
	InsertInviteLink(context.Context, store.InviteLink) error
	GetInviteLinkByToken(context.Context, string) (store.InviteLink, error)
	ListInviteLinks(context.Context, string) ([]store.InviteLink, error)
	IncrementInviteAccess(context.Context, string) error
	RevokeInviteLink(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

type reminderScheduler interface {
	Schedule(ctx context.Context, event *store.Event) error
	Cancel(ctx context.Context, event *store.Event) error
}

type menuKeeper interface {
	EnsureEventRepo(eventID string, initial menurepo.Menu, author string) error
	Commit(eventID string, m menurepo.Menu, author, message string) (store.MenuCommitInfo, error)
	Head(eventID string) (menurepo.Menu, store.MenuCommitInfo, error)
	GetByHash(eventID, hash string) (menurepo.Menu, error)
	History(eventID string, limit int) ([]store.MenuCommitInfo, error)
}

type menuEnricher interface {
	IsConfigured() bool
	Enrich(ctx context.Context, event store.Event, baseline menurepo.Menu) (menurepo.Menu, error)
}

type bottleIndex interface {
	Search(q search.Query) search.Response
	IndexBottle(b search.BottleRecord)
	DeleteBottle(id string)
}

type inviteExporter interface {
	ExportInvitePDF(invitation export.Invitation) (*export.Result, error)
}

type labelKeeper interface {
	Upload(ctx context.Context, bottleID, contentType string, reader io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	cfg       config.Config
	store     dataStore
	scheduler reminderScheduler
	menus     menuKeeper
	menuGen   menuEnricher
	search    bottleIndex
	labels    labelKeeper
	exporter  inviteExporter
	suggest   temperature.Suggester
}

// New wires the service. The scheduler and label store are optional; a nil
// pointer disables the feature rather than failing at startup.
func New(
	cfg config.Config,
	dataStore dataStore,
	scheduler *schedule.Scheduler,
	menus menuKeeper,
	menuGen menuEnricher,
	searchSvc bottleIndex,
	labelStore *labels.Store,
	exporter inviteExporter,
) *Service {
	service := &Service{
		cfg:      cfg,
		store:    dataStore,
		menus:    menus,
		menuGen:  menuGen,
		search:   searchSvc,
		exporter: exporter,
		suggest:  temperature.KeywordSuggest,
	}
	if scheduler != nil {
		service.scheduler = scheduler
	}
	if labelStore != nil {
		service.labels = labelStore
	}
	return service
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func forbidden(action string) *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", fmt.Sprintf("role may not %s", action), nil)
}

func validation(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}

// CreateEvent starts a dinner in the planning state. Collaborative dinners
// open for proposals right away.
func (s *Service) CreateEvent(ctx context.Context, p Participant, input CreateEventInput) (store.Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return store.Event{}, validation("title is required")
	}
	if input.Date.IsZero() {
		return store.Event{}, validation("date is required")
	}
	if input.GuestCount < 0 {
		return store.Event{}, validation("guestCount must not be negative")
	}

	event := store.Event{
		ID:         util.NewID("evt"),
		Title:      strings.TrimSpace(input.Title),
		Date:       input.Date,
		GuestCount: input.GuestCount,
		Occasion:   strings.TrimSpace(input.Occasion),
		Status:     lifecycle.StatusPlanning,
		CreatedBy:  p.Name,
	}
	if input.Collaborative {
		state := lifecycle.CollabOpenForProposals
		event.Collaboration = &state
	}

	if err := s.store.InsertEvent(ctx, event); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, event.ID)
}

func (s *Service) ListEvents(ctx context.Context) ([]store.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (store.Event, error) {
	return s.store.GetEvent(ctx, eventID)
}

// UpdateEventDetails edits title, guest count and occasion. Only the owner
// can, and only while the dinner is still being planned.
func (s *Service) UpdateEventDetails(ctx context.Context, p Participant, eventID string, input UpdateEventInput) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("edit the event")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	if !lifecycle.CanEditDishes(event.Status) {
		return store.Event{}, &lifecycle.Violation{Op: "edit event", From: event.Status}
	}
	if strings.TrimSpace(input.Title) == "" {
		return store.Event{}, validation("title is required")
	}
	if input.GuestCount < 0 {
		return store.Event{}, validation("guestCount must not be negative")
	}
	if err := s.store.UpdateEventDetails(ctx, eventID, strings.TrimSpace(input.Title), input.GuestCount, strings.TrimSpace(input.Occasion)); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// SetCollaborationState advances the collaboration sub-state. Transitions
// only move forward: reopening a locked board would invalidate decisions
// guests already saw.
func (s *Service) SetCollaborationState(ctx context.Context, p Participant, eventID string, to lifecycle.CollabState) (store.Event, error) {
	if !roles.For(p.Role).CanChangeCollaborationState {
		return store.Event{}, forbidden("change the collaboration state")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	if event.Collaboration == nil {
		return store.Event{}, validation("event is not collaborative")
	}
	if lifecycle.Terminal(event.Status) {
		return store.Event{}, &lifecycle.Violation{Op: "change collaboration state", From: event.Status}
	}
	next, err := lifecycle.AdvanceCollaboration(*event.Collaboration, to)
	if err != nil {
		return store.Event{}, err
	}
	if err := s.store.UpdateCollaborationState(ctx, eventID, next); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// CreateProposal adds a candidate dish. The proposer needs the capability,
// the dinner must still be in planning, and a collaborative board must be
// accepting proposals.
func (s *Service) CreateProposal(ctx context.Context, p Participant, eventID string, input CreateProposalInput) (store.Proposal, error) {
	if !roles.For(p.Role).CanPropose {
		return store.Proposal{}, forbidden("propose dishes")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Proposal{}, err
	}
	if !lifecycle.CanEditDishes(event.Status) {
		return store.Proposal{}, &lifecycle.Violation{Op: "propose a dish", From: event.Status}
	}
	if event.Collaboration != nil && !lifecycle.AllowsProposals(*event.Collaboration) {
		return store.Proposal{}, domainError(http.StatusConflict, "COLLABORATION_CLOSED", "the board is no longer accepting proposals", nil)
	}
	if strings.TrimSpace(input.DishName) == "" {
		return store.Proposal{}, validation("dishName is required")
	}
	if strings.TrimSpace(input.Course) == "" {
		return store.Proposal{}, validation("course is required")
	}

	proposal := store.Proposal{
		ID:             util.NewID("prop"),
		EventID:        eventID,
		Course:         strings.TrimSpace(input.Course),
		DishName:       strings.TrimSpace(input.DishName),
		Description:    strings.TrimSpace(input.Description),
		WineSuggestion: strings.TrimSpace(input.WineSuggestion),
		ProposedBy:     p.ID,
		ProposedByName: p.Name,
		Status:         store.ProposalPending,
	}
	if err := s.store.InsertProposal(ctx, proposal); err != nil {
		return store.Proposal{}, err
	}
	return proposal, nil
}

// DecideProposal accepts or rejects a dish. Votes inform the decision but do
// not make it; the owner does.
func (s *Service) DecideProposal(ctx context.Context, p Participant, eventID, proposalID string, status store.ProposalStatus) (store.Proposal, error) {
	if p.Role != roles.RoleOwner {
		return store.Proposal{}, forbidden("decide proposals")
	}
	if status != store.ProposalAccepted && status != store.ProposalRejected {
		return store.Proposal{}, validation("status must be accepted or rejected")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Proposal{}, err
	}
	if !lifecycle.CanEditDishes(event.Status) {
		return store.Proposal{}, &lifecycle.Violation{Op: "decide a proposal", From: event.Status}
	}
	proposal, ok := findProposal(event, proposalID)
	if !ok {
		return store.Proposal{}, domainError(http.StatusNotFound, "NOT_FOUND", "proposal not found", nil)
	}
	if err := s.store.UpdateProposalStatus(ctx, proposalID, status); err != nil {
		return store.Proposal{}, err
	}
	proposal.Status = status
	return proposal, nil
}

// CastVote applies the toggle semantics and mirrors the outcome to storage.
func (s *Service) CastVote(ctx context.Context, p Participant, eventID, proposalID string, upvote bool) (ledger.Outcome, store.Proposal, error) {
	if !roles.For(p.Role).CanVote {
		return 0, store.Proposal{}, forbidden("vote")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return 0, store.Proposal{}, err
	}
	if lifecycle.Terminal(event.Status) {
		return 0, store.Proposal{}, &lifecycle.Violation{Op: "vote", From: event.Status}
	}
	if event.Collaboration != nil && !lifecycle.AllowsVoting(*event.Collaboration) {
		return 0, store.Proposal{}, domainError(http.StatusConflict, "COLLABORATION_CLOSED", "voting is closed for this board", nil)
	}
	proposal, ok := findProposal(event, proposalID)
	if !ok {
		return 0, store.Proposal{}, domainError(http.StatusNotFound, "NOT_FOUND", "proposal not found", nil)
	}

	outcome := ledger.CastVote(&proposal, p.ID, p.Name, upvote)
	switch outcome {
	case ledger.VoteRetracted:
		err = s.store.DeleteVote(ctx, proposalID, p.ID)
	default:
		vote, _ := ledger.VoteOf(&proposal, p.ID)
		err = s.store.UpsertVote(ctx, proposalID, vote)
	}
	if err != nil {
		return 0, store.Proposal{}, err
	}
	return outcome, proposal, nil
}

// AddComment appends a remark to a proposal's discussion.
func (s *Service) AddComment(ctx context.Context, p Participant, eventID, proposalID, text string) (store.Comment, error) {
	if !roles.For(p.Role).CanComment {
		return store.Comment{}, forbidden("comment")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Comment{}, err
	}
	if lifecycle.Terminal(event.Status) {
		return store.Comment{}, &lifecycle.Violation{Op: "comment", From: event.Status}
	}
	proposal, ok := findProposal(event, proposalID)
	if !ok {
		return store.Comment{}, domainError(http.StatusNotFound, "NOT_FOUND", "proposal not found", nil)
	}

	comment, err := ledger.AddComment(&proposal, p.ID, p.Name, text)
	if err != nil {
		return store.Comment{}, err
	}
	if err := s.store.InsertComment(ctx, proposalID, comment); err != nil {
		return store.Comment{}, err
	}
	return comment, nil
}

// ConfirmWines locks in the pairings: every accepted proposal carrying a wine
// suggestion becomes a confirmed wine, categorised by name.
func (s *Service) ConfirmWines(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("confirm wines")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}

	pairings := acceptedPairings(event)
	next, err := lifecycle.ConfirmWines(event.Status, len(pairings))
	if err != nil {
		return store.Event{}, err
	}

	for _, proposal := range pairings {
		wine := store.ConfirmedWine{
			ID:       util.NewID("cw"),
			EventID:  eventID,
			Name:     proposal.WineSuggestion,
			Course:   proposal.Course,
			Source:   store.SourcePurchase,
			Quantity: 1,
			Category: s.suggest(proposal.WineSuggestion),
		}
		if err := s.store.InsertConfirmedWine(ctx, wine); err != nil {
			return store.Event{}, err
		}
	}

	if err := s.store.UpdateEventStatus(ctx, eventID, next); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// AddWine puts an extra bottle on the confirmed list, either bought for the
// occasion or pulled from the cellar. Cellar picks decrement stock.
func (s *Service) AddWine(ctx context.Context, p Participant, eventID string, input AddWineInput) (store.ConfirmedWine, error) {
	if p.Role != roles.RoleOwner {
		return store.ConfirmedWine{}, forbidden("add wines")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.ConfirmedWine{}, err
	}
	if event.Status != lifecycle.StatusWinesConfirmed && event.Status != lifecycle.StatusConfirmed {
		return store.ConfirmedWine{}, &lifecycle.Violation{Op: "add a wine", From: event.Status}
	}
	if event.NotificationsScheduled {
		return store.ConfirmedWine{}, domainError(http.StatusConflict, "NOTIFICATIONS_SCHEDULED", "cancel the scheduled reminders before changing wines", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return store.ConfirmedWine{}, validation("name is required")
	}
	if input.Quantity <= 0 {
		return store.ConfirmedWine{}, validation("quantity must be positive")
	}

	source := store.WineSource(input.Source)
	if source == "" {
		source = store.SourcePurchase
	}
	if source != store.SourceCellar && source != store.SourcePurchase {
		return store.ConfirmedWine{}, validation("source must be fromCellar or purchase")
	}

	category := temperature.Category(input.Category)
	if category == "" {
		category = s.suggest(input.Name)
	} else if !temperature.Valid(category) {
		return store.ConfirmedWine{}, validation("unknown temperature category")
	}

	wine := store.ConfirmedWine{
		ID:       util.NewID("cw"),
		EventID:  eventID,
		Name:     strings.TrimSpace(input.Name),
		Producer: strings.TrimSpace(input.Producer),
		Course:   strings.TrimSpace(input.Course),
		Source:   source,
		Quantity: input.Quantity,
		Category: category,
	}

	if source == store.SourceCellar {
		if input.BottleID == "" {
			return store.ConfirmedWine{}, validation("bottleId is required for cellar wines")
		}
		changed, err := s.store.AdjustBottleQuantity(ctx, input.BottleID, -input.Quantity)
		if err != nil {
			return store.ConfirmedWine{}, err
		}
		if !changed {
			return store.ConfirmedWine{}, domainError(http.StatusConflict, "INSUFFICIENT_STOCK", "not enough bottles in the cellar", nil)
		}
		bottleID := input.BottleID
		wine.BottleID = &bottleID
	}

	if err := s.store.InsertConfirmedWine(ctx, wine); err != nil {
		return store.ConfirmedWine{}, err
	}
	return wine, nil
}

// UpdateWine edits a confirmed wine. Setting quantity to zero keeps the entry
// but removes it from the cooling plan.
func (s *Service) UpdateWine(ctx context.Context, p Participant, eventID, wineID string, input UpdateWineInput) (store.ConfirmedWine, error) {
	if p.Role != roles.RoleOwner {
		return store.ConfirmedWine{}, forbidden("edit wines")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.ConfirmedWine{}, err
	}
	if lifecycle.Terminal(event.Status) {
		return store.ConfirmedWine{}, &lifecycle.Violation{Op: "edit a wine", From: event.Status}
	}
	if event.NotificationsScheduled {
		return store.ConfirmedWine{}, domainError(http.StatusConflict, "NOTIFICATIONS_SCHEDULED", "cancel the scheduled reminders before changing wines", nil)
	}

	wine, ok := findWine(event, wineID)
	if !ok {
		return store.ConfirmedWine{}, domainError(http.StatusNotFound, "NOT_FOUND", "wine not found", nil)
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return store.ConfirmedWine{}, validation("quantity must not be negative")
		}
		wine.Quantity = *input.Quantity
	}
	if input.Category != nil {
		category := temperature.Category(*input.Category)
		if !temperature.Valid(category) {
			return store.ConfirmedWine{}, validation("unknown temperature category")
		}
		wine.Category = category
	}
	if input.Course != nil {
		wine.Course = strings.TrimSpace(*input.Course)
	}

	if err := s.store.UpdateConfirmedWine(ctx, wine); err != nil {
		return store.ConfirmedWine{}, err
	}
	return wine, nil
}

// RemoveWine takes a bottle off the confirmed list. Cellar picks return to
// stock so the bottle can be poured another night.
func (s *Service) RemoveWine(ctx context.Context, p Participant, eventID, wineID string) error {
	if p.Role != roles.RoleOwner {
		return forbidden("remove wines")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if lifecycle.Terminal(event.Status) {
		return &lifecycle.Violation{Op: "remove a wine", From: event.Status}
	}
	if event.NotificationsScheduled {
		return domainError(http.StatusConflict, "NOTIFICATIONS_SCHEDULED", "cancel the scheduled reminders before changing wines", nil)
	}
	wine, ok := findWine(event, wineID)
	if !ok {
		return domainError(http.StatusNotFound, "NOT_FOUND", "wine not found", nil)
	}

	if wine.Source == store.SourceCellar && wine.BottleID != nil && wine.Quantity > 0 {
		// The bottle may have left the catalogue since; the removal still goes.
		if _, err := s.store.AdjustBottleQuantity(ctx, *wine.BottleID, wine.Quantity); err != nil && !store.IsNotFound(err) {
			return err
		}
	}
	return s.store.DeleteConfirmedWine(ctx, wineID)
}

// ConfirmDinner locks the dinner.
func (s *Service) ConfirmDinner(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("confirm the dinner")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	next, err := lifecycle.ConfirmDinner(event.Status)
	if err != nil {
		return store.Event{}, err
	}
	if err := s.store.UpdateEventStatus(ctx, eventID, next); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// CompleteDinner marks the evening as over. Pending reminders are withdrawn
// first so nobody is told to chill a wine for a dinner already eaten.
func (s *Service) CompleteDinner(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("complete the dinner")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	next, err := lifecycle.CompleteDinner(event.Status, len(event.Wines))
	if err != nil {
		return store.Event{}, err
	}
	if event.NotificationsScheduled && s.scheduler != nil {
		if err := s.scheduler.Cancel(ctx, &event); err != nil {
			return store.Event{}, err
		}
		if err := s.store.SaveSchedulingState(ctx, event); err != nil {
			return store.Event{}, err
		}
	}
	if err := s.store.UpdateEventStatus(ctx, eventID, next); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// CancelEvent abandons a dinner from any non-terminal state and withdraws its
// reminders.
func (s *Service) CancelEvent(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("cancel the event")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	next, err := lifecycle.Cancel(event.Status)
	if err != nil {
		return store.Event{}, err
	}
	if event.NotificationsScheduled && s.scheduler != nil {
		if err := s.scheduler.Cancel(ctx, &event); err != nil {
			return store.Event{}, err
		}
		if err := s.store.SaveSchedulingState(ctx, event); err != nil {
			return store.Event{}, err
		}
	}
	if err := s.store.UpdateEventStatus(ctx, eventID, next); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// CoolingPlan previews the cooling timeline without scheduling anything.
func (s *Service) CoolingPlan(ctx context.Context, eventID string) ([]schedule.Entry, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	entries := schedule.Plan(event.Wines, event.Date)
	if entries == nil {
		entries = []schedule.Entry{}
	}
	return entries, nil
}

// ScheduleNotifications registers the cooling reminders for a dinner whose
// wines are locked in.
func (s *Service) ScheduleNotifications(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("schedule reminders")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	if event.Status != lifecycle.StatusWinesConfirmed && event.Status != lifecycle.StatusConfirmed {
		return store.Event{}, &lifecycle.Violation{Op: "schedule reminders", From: event.Status}
	}
	if s.scheduler == nil {
		return store.Event{}, domainError(http.StatusServiceUnavailable, "NOTIFICATIONS_UNAVAILABLE", "the reminder registry is not configured", nil)
	}
	if err := s.scheduler.Schedule(ctx, &event); err != nil {
		return store.Event{}, err
	}
	if err := s.store.SaveSchedulingState(ctx, event); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// CancelNotifications withdraws the dinner's reminders. Cancelling when
// nothing is scheduled is a no-op.
func (s *Service) CancelNotifications(ctx context.Context, p Participant, eventID string) (store.Event, error) {
	if p.Role != roles.RoleOwner {
		return store.Event{}, forbidden("cancel reminders")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.Event{}, err
	}
	if s.scheduler == nil {
		return store.Event{}, domainError(http.StatusServiceUnavailable, "NOTIFICATIONS_UNAVAILABLE", "the reminder registry is not configured", nil)
	}
	if err := s.scheduler.Cancel(ctx, &event); err != nil {
		return store.Event{}, err
	}
	if err := s.store.SaveSchedulingState(ctx, event); err != nil {
		return store.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

func findProposal(event store.Event, proposalID string) (store.Proposal, bool) {
	for _, proposal := range event.Proposals {
		if proposal.ID == proposalID {
			return proposal, true
		}
	}
	return store.Proposal{}, false
}

func findWine(event store.Event, wineID string) (store.ConfirmedWine, bool) {
	for _, wine := range event.Wines {
		if wine.ID == wineID {
			return wine, true
		}
	}
	return store.ConfirmedWine{}, false
}

func acceptedPairings(event store.Event) []store.Proposal {
	var pairings []store.Proposal
	for _, proposal := range event.Proposals {
		if proposal.Status == store.ProposalAccepted && strings.TrimSpace(proposal.WineSuggestion) != "" {
			pairings = append(pairings, proposal)
		}
	}
	return pairings
}
