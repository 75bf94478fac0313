package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"convivio/api/internal/export"
	"convivio/api/internal/ledger"
	"convivio/api/internal/lifecycle"
	"convivio/api/internal/roles"
	"convivio/api/internal/schedule"
	"convivio/api/internal/search"
	"convivio/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Public invite links, no participant identity required
	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/invites/") {
		segments := splitPath(r.URL.Path)
		password := invitePassword(r)
		switch {
		case len(segments) == 3:
			view, err := s.service.AccessInvite(r.Context(), segments[2], password)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		case len(segments) == 4 && segments[3] == "pdf":
			result, err := s.service.InvitePDF(r.Context(), segments[2], password)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			w.Header().Set("Content-Type", result.MimeType)
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(result.Data)
			return
		}
	}

	participant, ok := s.requireParticipant(w, r)
	if !ok {
		return
	}

	segments := splitPath(r.URL.Path)
	if len(segments) >= 2 && segments[0] == "api" {
		switch segments[1] {
		case "events":
			s.handleEvents(w, r, participant, segments[2:])
			return
		case "cellar":
			s.handleCellar(w, r, participant, segments[2:])
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request, p Participant, rest []string) {
	ctx := r.Context()

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		events, err := s.service.ListEvents(ctx)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(events))
		for _, event := range events {
			views = append(views, eventSummaryView(event))
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": views})
		return

	case len(rest) == 0 && r.Method == http.MethodPost:
		var body CreateEventInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		event, err := s.service.CreateEvent(ctx, p, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, eventView(event))
		return
	}

	if len(rest) == 0 {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	eventID := rest[0]
	rest = rest[1:]

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		event, err := s.service.GetEvent(ctx, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 0 && r.Method == http.MethodPut:
		var body UpdateEventInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		event, err := s.service.UpdateEventDetails(ctx, p, eventID, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "cancel" && r.Method == http.MethodPost:
		event, err := s.service.CancelEvent(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "collaboration" && r.Method == http.MethodPost:
		var body struct {
			State string `json:"state"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		to := lifecycle.CollabState(body.State)
		if !lifecycle.ValidCollabState(to) {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown collaboration state", nil)
			return
		}
		event, err := s.service.SetCollaborationState(ctx, p, eventID, to)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "proposals" && r.Method == http.MethodPost:
		var body CreateProposalInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		proposal, err := s.service.CreateProposal(ctx, p, eventID, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, proposalView(proposal))

	case len(rest) == 3 && rest[0] == "proposals" && rest[2] == "decision" && r.Method == http.MethodPost:
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		proposal, err := s.service.DecideProposal(ctx, p, eventID, rest[1], store.ProposalStatus(body.Status))
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proposalView(proposal))

	case len(rest) == 3 && rest[0] == "proposals" && rest[2] == "votes" && r.Method == http.MethodPost:
		var body VoteInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		outcome, proposal, err := s.service.CastVote(ctx, p, eventID, rest[1], body.Upvote)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"outcome":  outcomeName(outcome),
			"proposal": proposalView(proposal),
		})

	case len(rest) == 3 && rest[0] == "proposals" && rest[2] == "comments" && r.Method == http.MethodPost:
		var body CommentInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		comment, err := s.service.AddComment(ctx, p, eventID, rest[1], body.Text)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":         comment.ID,
			"authorId":   comment.AuthorID,
			"authorName": comment.AuthorName,
			"text":       comment.Text,
			"createdAt":  comment.CreatedAt,
		})

	case len(rest) == 1 && rest[0] == "confirm-wines" && r.Method == http.MethodPost:
		event, err := s.service.ConfirmWines(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "confirm" && r.Method == http.MethodPost:
		event, err := s.service.ConfirmDinner(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "complete" && r.Method == http.MethodPost:
		event, err := s.service.CompleteDinner(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "wines" && r.Method == http.MethodPost:
		var body AddWineInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		wine, err := s.service.AddWine(ctx, p, eventID, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wineView(wine))

	case len(rest) == 2 && rest[0] == "wines" && r.Method == http.MethodPut:
		var body UpdateWineInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		wine, err := s.service.UpdateWine(ctx, p, eventID, rest[1], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wineView(wine))

	case len(rest) == 2 && rest[0] == "wines" && r.Method == http.MethodDelete:
		if err := s.service.RemoveWine(ctx, p, eventID, rest[1]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "cooling-plan" && r.Method == http.MethodGet:
		entries, err := s.service.CoolingPlan(ctx, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			views = append(views, planEntryView(entry))
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": views})

	case len(rest) == 1 && rest[0] == "notifications" && r.Method == http.MethodPost:
		event, err := s.service.ScheduleNotifications(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "notifications" && r.Method == http.MethodDelete:
		event, err := s.service.CancelNotifications(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventView(event))

	case len(rest) == 1 && rest[0] == "menu" && r.Method == http.MethodPost:
		revision, err := s.service.RegenerateMenu(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, menuRevisionView(revision))

	case len(rest) == 1 && rest[0] == "menu" && r.Method == http.MethodGet:
		revision, err := s.service.GetMenu(ctx, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, menuRevisionView(revision))

	case len(rest) == 2 && rest[0] == "menu" && rest[1] == "history" && r.Method == http.MethodGet:
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		history, err := s.service.MenuHistory(ctx, eventID, limit)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(history))
		for _, commit := range history {
			views = append(views, commitView(commit))
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": views})

	case len(rest) == 3 && rest[0] == "menu" && rest[1] == "revisions" && r.Method == http.MethodGet:
		m, err := s.service.MenuAtRevision(ctx, eventID, rest[2])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"menu": m})

	case len(rest) == 1 && rest[0] == "invites" && r.Method == http.MethodPost:
		var body CreateInviteInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		link, err := s.service.CreateInviteLink(ctx, p, eventID, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inviteLinkView(link))

	case len(rest) == 1 && rest[0] == "invites" && r.Method == http.MethodGet:
		links, err := s.service.ListInviteLinks(ctx, p, eventID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(links))
		for _, link := range links {
			views = append(views, inviteLinkView(link))
		}
		writeJSON(w, http.StatusOK, map[string]any{"invites": views})

	case len(rest) == 2 && rest[0] == "invites" && r.Method == http.MethodDelete:
		if err := s.service.RevokeInviteLink(ctx, p, eventID, rest[1]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleCellar(w http.ResponseWriter, r *http.Request, p Participant, rest []string) {
	ctx := r.Context()

	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		bottles, err := s.service.ListBottles(ctx)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(bottles))
		for _, bottle := range bottles {
			views = append(views, bottleView(bottle))
		}
		writeJSON(w, http.StatusOK, map[string]any{"bottles": views})

	case len(rest) == 0 && r.Method == http.MethodPost:
		var body AddBottleInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		bottle, err := s.service.AddBottle(ctx, p, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bottleView(bottle))

	case len(rest) == 1 && rest[0] == "search" && r.Method == http.MethodGet:
		query := search.Query{
			Text:           strings.TrimSpace(r.URL.Query().Get("q")),
			FilterCategory: strings.TrimSpace(r.URL.Query().Get("category")),
			OnlyInStock:    r.URL.Query().Get("inStock") == "true",
			Limit:          20,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			query.Limit = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			query.Offset = parsed
		}
		response, err := s.service.SearchBottles(ctx, query)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response)

	case len(rest) == 1 && r.Method == http.MethodGet:
		bottle, err := s.service.GetBottle(ctx, rest[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bottleView(bottle))

	case len(rest) == 1 && r.Method == http.MethodPut:
		var body UpdateBottleInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		bottle, err := s.service.UpdateBottle(ctx, p, rest[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bottleView(bottle))

	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteBottle(ctx, p, rest[0]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 2 && rest[1] == "label" && r.Method == http.MethodPost:
		contentType := r.Header.Get("Content-Type")
		bottle, err := s.service.UploadLabel(ctx, p, rest[0], contentType, r.Body, r.ContentLength)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bottleView(bottle))

	case len(rest) == 2 && rest[1] == "label" && r.Method == http.MethodGet:
		url, err := s.service.LabelURL(ctx, rest[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": url})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

// requireParticipant reads the identity headers the device app sends with
// every request. There is no account system; the household trusts its own
// devices and the role claim is scoped per event on the client.
func (s *HTTPServer) requireParticipant(w http.ResponseWriter, r *http.Request) (Participant, bool) {
	id := strings.TrimSpace(r.Header.Get("X-Participant-Id"))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-Participant-Id header is required", nil)
		return Participant{}, false
	}
	name := strings.TrimSpace(r.Header.Get("X-Participant-Name"))
	if name == "" {
		name = id
	}
	return Participant{
		ID:   id,
		Name: name,
		Role: roles.Normalize(strings.TrimSpace(r.Header.Get("X-Participant-Role"))),
	}, true
}

func invitePassword(r *http.Request) string {
	if password := r.Header.Get("X-Invite-Password"); password != "" {
		return password
	}
	return r.URL.Query().Get("password")
}

func outcomeName(outcome ledger.Outcome) string {
	switch outcome {
	case ledger.VoteFlipped:
		return "flipped"
	case ledger.VoteRetracted:
		return "retracted"
	default:
		return "cast"
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Participant-Id, X-Participant-Name, X-Participant-Role, X-Invite-Password")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var violation *lifecycle.Violation
	if errors.As(err, &violation) {
		return http.StatusConflict, "LIFECYCLE_VIOLATION", violation.Error(), nil
	}
	var invalid *ledger.ValidationError
	if errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", invalid.Reason, nil
	}
	if errors.Is(err, schedule.ErrPermissionDenied) {
		return http.StatusForbidden, "PERMISSION_DENIED", "notification permission was not granted", nil
	}
	if errors.Is(err, schedule.ErrAlreadyScheduled) {
		return http.StatusConflict, "ALREADY_SCHEDULED", "reminders are already scheduled for this event", nil
	}
	if errors.Is(err, schedule.ErrNothingToSchedule) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "none of the confirmed wines needs a cooling reminder", nil
	}
	var schedFailure *schedule.SchedulingError
	if errors.As(err, &schedFailure) {
		return http.StatusBadGateway, "SCHEDULING_FAILURE", fmt.Sprintf("could not %s: the reminder registry did not accept the request, try again", schedFailure.Op), nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available on this host", nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
