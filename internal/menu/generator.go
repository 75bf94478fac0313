// Package menu composes an event's menu from its accepted dish proposals,
// optionally polished by an external menu-writing service.
package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"convivio/api/internal/menurepo"
	"convivio/api/internal/store"
)

// courseOrder fixes the serving order on the rendered menu. Unknown courses
// sort after the known ones, alphabetically.
var courseOrder = map[string]int{
	"aperitivo": 0,
	"antipasto": 1,
	"primo":     2,
	"main":      3,
	"secondo":   3,
	"contorno":  4,
	"dolce":     5,
	"dessert":   5,
}

// Compose builds the baseline menu from the event's accepted proposals. One
// course can carry several dishes; each keeps its wine pairing.
func Compose(event store.Event) menurepo.Menu {
	m := menurepo.Menu{Title: event.Title}
	for _, proposal := range event.Proposals {
		if proposal.Status != store.ProposalAccepted {
			continue
		}
		m.Courses = append(m.Courses, menurepo.Course{
			Name: proposal.Course,
			Dish: proposal.DishName,
			Wine: proposal.WineSuggestion,
		})
	}
	sort.SliceStable(m.Courses, func(i, j int) bool {
		oi, oki := courseOrder[m.Courses[i].Name]
		oj, okj := courseOrder[m.Courses[j].Name]
		switch {
		case oki && okj:
			return oi < oj
		case oki:
			return true
		case okj:
			return false
		default:
			return m.Courses[i].Name < m.Courses[j].Name
		}
	})
	return m
}

// Generator asks an external service to polish course notes and naming. It is
// optional: an unconfigured generator passes menus through untouched.
type Generator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGenerator(baseURL, apiKey string) *Generator {
	return &Generator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// IsConfigured returns true if a menu-writing endpoint is set.
func (g *Generator) IsConfigured() bool {
	return g.baseURL != ""
}

type enrichRequest struct {
	Occasion   string        `json:"occasion,omitempty"`
	GuestCount int           `json:"guestCount,omitempty"`
	Menu       menurepo.Menu `json:"menu"`
}

// Enrich sends the composed menu out for polish and returns the improved
// version. The caller decides what to do when enrichment fails; the baseline
// menu is always usable as-is.
func (g *Generator) Enrich(ctx context.Context, event store.Event, baseline menurepo.Menu) (menurepo.Menu, error) {
	if !g.IsConfigured() {
		return baseline, nil
	}

	payload, err := json.Marshal(enrichRequest{
		Occasion:   event.Occasion,
		GuestCount: event.GuestCount,
		Menu:       baseline,
	})
	if err != nil {
		return baseline, fmt.Errorf("marshal menu request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/menu", bytes.NewReader(payload))
	if err != nil {
		return baseline, fmt.Errorf("build menu request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return baseline, fmt.Errorf("call menu service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return baseline, fmt.Errorf("menu service returned %d", resp.StatusCode)
	}

	var enriched menurepo.Menu
	if err := json.NewDecoder(resp.Body).Decode(&enriched); err != nil {
		return baseline, fmt.Errorf("decode menu response: %w", err)
	}
	if len(enriched.Courses) != len(baseline.Courses) {
		return baseline, fmt.Errorf("menu service changed the course count")
	}
	return enriched, nil
}
