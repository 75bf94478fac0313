package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"convivio/api/internal/config"
	"convivio/api/internal/schedule"
	"convivio/api/internal/temperature"
)

func newTestServer() (*httptest.Server, *fakeStore) {
	fake := newFakeStore()
	svc := &Service{
		cfg:       config.Config{},
		store:     fake,
		scheduler: &fakeScheduler{},
		suggest:   temperature.KeywordSuggest,
	}
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	return server, fake
}

func asOwner(req *http.Request) {
	req.Header.Set("X-Participant-Id", "u-anna")
	req.Header.Set("X-Participant-Name", "Anna")
	req.Header.Set("X-Participant-Role", "owner")
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestEventRoutesRequireParticipantHeader(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/events")
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateAndFetchEventOverHTTP(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()
	client := server.Client()

	body := `{"title":"Saturday dinner","date":"2026-09-12T20:00:00Z","guestCount":6,"collaborative":true}`
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/events", strings.NewReader(body))
	asOwner(req)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /api/events: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created["status"] != "planning" {
		t.Errorf("status = %v", created["status"])
	}
	if created["collaborationState"] != "openForProposals" {
		t.Errorf("collaborationState = %v", created["collaborationState"])
	}

	eventID, _ := created["id"].(string)
	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/events/"+eventID, nil)
	asOwner(req)
	resp2, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET event: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp2.StatusCode)
	}
}

func TestLifecycleViolationMapsToConflict(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()
	client := server.Client()

	body := `{"title":"Dinner","date":"2026-09-12T20:00:00Z"}`
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/events", strings.NewReader(body))
	asOwner(req)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /api/events: %v", err)
	}
	var created map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	eventID, _ := created["id"].(string)

	// no accepted pairings, confirm-wines must fail with 409
	req, _ = http.NewRequest(http.MethodPost, server.URL+"/api/events/"+eventID+"/confirm-wines", nil)
	asOwner(req)
	resp2, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST confirm-wines: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp2.StatusCode)
	}
	var failure map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&failure); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if failure["code"] != "LIFECYCLE_VIOLATION" {
		t.Errorf("code = %v", failure["code"])
	}
}

func TestMapErrorSchedulingTaxonomy(t *testing.T) {
	status, code, _, _ := mapError(&schedule.SchedulingError{Op: "schedule cool-down reminder", Err: errors.New("registry unavailable")})
	if status != http.StatusBadGateway || code != "SCHEDULING_FAILURE" {
		t.Errorf("registry failure mapped to %d/%s", status, code)
	}

	status, code, _, _ = mapError(schedule.ErrPermissionDenied)
	if status != http.StatusForbidden || code != "PERMISSION_DENIED" {
		t.Errorf("permission denial mapped to %d/%s", status, code)
	}

	status, code, _, _ = mapError(schedule.ErrNothingToSchedule)
	if status != http.StatusUnprocessableEntity || code != "VALIDATION_ERROR" {
		t.Errorf("empty plan mapped to %d/%s", status, code)
	}

	status, code, _, _ = mapError(schedule.ErrAlreadyScheduled)
	if status != http.StatusConflict || code != "ALREADY_SCHEDULED" {
		t.Errorf("double schedule mapped to %d/%s", status, code)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	server, _ := newTestServer()
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/nope", nil)
	asOwner(req)
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
