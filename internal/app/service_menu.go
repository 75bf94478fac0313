package app

import (
	"context"
	"net/http"

	"convivio/api/internal/lifecycle"
	"convivio/api/internal/menu"
	"convivio/api/internal/menurepo"
	"convivio/api/internal/roles"
	"convivio/api/internal/store"
)

// MenuRevision is a menu together with the commit that produced it.
type MenuRevision struct {
	Menu   menurepo.Menu        `json:"menu"`
	Commit store.MenuCommitInfo `json:"commit"`
}

// RegenerateMenu recomposes the menu from the accepted proposals, sends it
// out for enrichment when a menu service is configured, and commits the
// result as a new revision. Earlier revisions stay reachable by hash.
func (s *Service) RegenerateMenu(ctx context.Context, p Participant, eventID string) (MenuRevision, error) {
	if p.Role != roles.RoleOwner {
		return MenuRevision{}, forbidden("regenerate the menu")
	}
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return MenuRevision{}, err
	}
	if !lifecycle.CanRegenerateMenu(event.Status) {
		return MenuRevision{}, &lifecycle.Violation{Op: "regenerate the menu", From: event.Status}
	}

	baseline := menu.Compose(event)
	if len(baseline.Courses) == 0 {
		return MenuRevision{}, validation("no accepted proposals to build a menu from")
	}

	composed := baseline
	message := "Regenerate menu"
	if s.menuGen != nil && s.menuGen.IsConfigured() {
		enriched, err := s.menuGen.Enrich(ctx, event, baseline)
		if err == nil {
			composed = enriched
			message = "Regenerate menu (enriched)"
		}
	}

	if err := s.menus.EnsureEventRepo(eventID, composed, p.Name); err != nil {
		return MenuRevision{}, err
	}
	if head, commit, err := s.menus.Head(eventID); err == nil && !menurepo.HasChanges(head, composed) {
		return MenuRevision{Menu: head, Commit: commit}, nil
	}
	commit, err := s.menus.Commit(eventID, composed, p.Name, message)
	if err != nil {
		return MenuRevision{}, err
	}
	return MenuRevision{Menu: composed, Commit: commit}, nil
}

// GetMenu returns the current menu revision.
func (s *Service) GetMenu(ctx context.Context, eventID string) (MenuRevision, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return MenuRevision{}, err
	}
	m, commit, err := s.menus.Head(eventID)
	if err != nil {
		return MenuRevision{}, domainError(http.StatusNotFound, "NOT_FOUND", "no menu has been generated for this event", nil)
	}
	return MenuRevision{Menu: m, Commit: commit}, nil
}

// MenuHistory lists menu revisions, newest first.
func (s *Service) MenuHistory(ctx context.Context, eventID string, limit int) ([]store.MenuCommitInfo, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	history, err := s.menus.History(eventID, limit)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "no menu has been generated for this event", nil)
	}
	return history, nil
}

// MenuAtRevision returns the menu as of a specific commit hash. Abbreviated
// hashes are accepted.
func (s *Service) MenuAtRevision(ctx context.Context, eventID, hash string) (menurepo.Menu, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return menurepo.Menu{}, err
	}
	m, err := s.menus.GetByHash(eventID, hash)
	if err != nil {
		return menurepo.Menu{}, domainError(http.StatusNotFound, "NOT_FOUND", "menu revision not found", nil)
	}
	return m, nil
}
