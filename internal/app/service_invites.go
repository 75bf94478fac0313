package app

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"convivio/api/internal/export"
	"convivio/api/internal/lifecycle"
	"convivio/api/internal/roles"
	"convivio/api/internal/store"
	"convivio/api/internal/util"
)

type CreateInviteInput struct {
	Password    string `json:"password"`
	ExpiresInHr int    `json:"expiresInHours"`
}

// InviteView is what an invite link resolves to: the dinner, its menu and its
// wine list, without any of the planning internals.
type InviteView struct {
	Title      string       `json:"title"`
	Host       string       `json:"host"`
	Occasion   string       `json:"occasion,omitempty"`
	Date       time.Time    `json:"date"`
	GuestCount int          `json:"guestCount"`
	Courses    []InviteDish `json:"courses"`
	Wines      []InviteWine `json:"wines"`
}

type InviteDish struct {
	Name string `json:"name"`
	Dish string `json:"dish"`
	Wine string `json:"wine,omitempty"`
}

type InviteWine struct {
	Name     string `json:"name"`
	Producer string `json:"producer,omitempty"`
	Course   string `json:"course,omitempty"`
}

// CreateInviteLink mints a shareable token for a confirmed dinner. The
// password is optional and stored only as a bcrypt hash.
func (s *Service) CreateInviteLink(ctx context.Context, p Participant, eventID string, input CreateInviteInput) (store.InviteLink, error) {
	if p.Role != roles.RoleOwner {
		return store.InviteLink{}, forbidden("create invite links")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return store.InviteLink{}, err
	}
	if !lifecycle.CanGenerateInvite(event.Status) {
		return store.InviteLink{}, &lifecycle.Violation{Op: "create an invite link", From: event.Status}
	}
	if input.ExpiresInHr < 0 {
		return store.InviteLink{}, validation("expiresInHours must not be negative")
	}

	link := store.InviteLink{
		ID:        util.NewID("inv"),
		EventID:   eventID,
		Token:     util.NewID("tok"),
		CreatedBy: p.Name,
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return store.InviteLink{}, err
		}
		hashed := string(hash)
		link.PasswordHash = &hashed
	}
	if input.ExpiresInHr > 0 {
		expires := time.Now().Add(time.Duration(input.ExpiresInHr) * time.Hour)
		link.ExpiresAt = &expires
	}

	if err := s.store.InsertInviteLink(ctx, link); err != nil {
		return store.InviteLink{}, err
	}
	return link, nil
}

func (s *Service) ListInviteLinks(ctx context.Context, p Participant, eventID string) ([]store.InviteLink, error) {
	if p.Role != roles.RoleOwner {
		return nil, forbidden("list invite links")
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	links, err := s.store.ListInviteLinks(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []store.InviteLink{}
	}
	return links, nil
}

// RevokeInviteLink disables a link. Revoking twice is a no-op.
func (s *Service) RevokeInviteLink(ctx context.Context, p Participant, eventID, linkID string) error {
	if p.Role != roles.RoleOwner {
		return forbidden("revoke invite links")
	}
	links, err := s.store.ListInviteLinks(ctx, eventID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if link.ID == linkID {
			_, err := s.store.RevokeInviteLink(ctx, linkID)
			return err
		}
	}
	return domainError(http.StatusNotFound, "NOT_FOUND", "invite link not found", nil)
}

// AccessInvite resolves a token to the public invitation view. Revoked and
// unknown tokens are indistinguishable to the caller.
func (s *Service) AccessInvite(ctx context.Context, token, password string) (InviteView, error) {
	link, err := s.resolveInvite(ctx, token, password)
	if err != nil {
		return InviteView{}, err
	}
	event, err := s.store.GetEvent(ctx, link.EventID)
	if err != nil {
		return InviteView{}, err
	}
	if err := s.store.IncrementInviteAccess(ctx, link.ID); err != nil {
		return InviteView{}, err
	}
	return s.buildInviteView(event), nil
}

// InvitePDF renders the invitation card for a token as a printable PDF.
func (s *Service) InvitePDF(ctx context.Context, token, password string) (*export.Result, error) {
	link, err := s.resolveInvite(ctx, token, password)
	if err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, link.EventID)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementInviteAccess(ctx, link.ID); err != nil {
		return nil, err
	}

	view := s.buildInviteView(event)
	invitation := export.Invitation{
		Title:    view.Title,
		Host:     view.Host,
		Occasion: view.Occasion,
		Date:     view.Date,
	}
	for _, course := range view.Courses {
		invitation.Courses = append(invitation.Courses, export.InviteCourse{
			Name: course.Name,
			Dish: course.Dish,
			Wine: course.Wine,
		})
	}
	return s.exporter.ExportInvitePDF(invitation)
}

func (s *Service) resolveInvite(ctx context.Context, token, password string) (store.InviteLink, error) {
	link, err := s.store.GetInviteLinkByToken(ctx, token)
	if err != nil {
		return store.InviteLink{}, err
	}
	if link.RevokedAt != nil {
		return store.InviteLink{}, domainError(http.StatusNotFound, "NOT_FOUND", "invite link not found", nil)
	}
	if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
		return store.InviteLink{}, domainError(http.StatusGone, "INVITE_EXPIRED", "this invite link has expired", nil)
	}
	if link.PasswordHash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(password)); err != nil {
			return store.InviteLink{}, domainError(http.StatusUnauthorized, "INVITE_PASSWORD", "a valid password is required", nil)
		}
	}
	return link, nil
}

func (s *Service) buildInviteView(event store.Event) InviteView {
	view := InviteView{
		Title:      event.Title,
		Host:       event.CreatedBy,
		Occasion:   event.Occasion,
		Date:       event.Date,
		GuestCount: event.GuestCount,
		Courses:    []InviteDish{},
		Wines:      []InviteWine{},
	}
	if m, _, err := s.menus.Head(event.ID); err == nil {
		for _, course := range m.Courses {
			view.Courses = append(view.Courses, InviteDish{
				Name: course.Name,
				Dish: course.Dish,
				Wine: course.Wine,
			})
		}
	}
	for _, wine := range event.Wines {
		if wine.Quantity <= 0 {
			continue
		}
		view.Wines = append(view.Wines, InviteWine{
			Name:     wine.Name,
			Producer: wine.Producer,
			Course:   wine.Course,
		})
	}
	return view
}
