package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"convivio/api/internal/lifecycle"
	"convivio/api/internal/temperature"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) InsertEvent(ctx context.Context, event Event) error {
	var collab *string
	if event.Collaboration != nil {
		value := string(*event.Collaboration)
		collab = &value
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, event_date, guest_count, occasion, status, collaboration_state, created_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.Title, event.Date, event.GuestCount, event.Occasion, string(event.Status), collab, event.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent loads the full aggregate: the event row plus its proposals with
// votes and comments, and its confirmed wines.
func (s *PostgresStore) GetEvent(ctx context.Context, eventID string) (Event, error) {
	var event Event
	var status string
	var collab *string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, event_date, guest_count, occasion, status, collaboration_state,
		       notifications_scheduled, post_event_token, created_by_name, created_at, updated_at
		FROM events
		WHERE id=$1
	`, eventID).Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.GuestCount,
		&event.Occasion,
		&status,
		&collab,
		&event.NotificationsScheduled,
		&event.PostEventToken,
		&event.CreatedBy,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return Event{}, err
	}
	event.Status = lifecycle.Status(status)
	if collab != nil {
		state := lifecycle.CollabState(*collab)
		event.Collaboration = &state
	}

	proposals, err := s.listProposals(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	event.Proposals = proposals

	wines, err := s.listConfirmedWines(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	event.Wines = wines

	return event, nil
}

// ListEvents returns event rows without their aggregates, newest dinner first.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, event_date, guest_count, occasion, status, collaboration_state,
		       notifications_scheduled, post_event_token, created_by_name, created_at, updated_at
		FROM events
		ORDER BY event_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var item Event
		var status string
		var collab *string
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Date,
			&item.GuestCount,
			&item.Occasion,
			&status,
			&collab,
			&item.NotificationsScheduled,
			&item.PostEventToken,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		item.Status = lifecycle.Status(status)
		if collab != nil {
			state := lifecycle.CollabState(*collab)
			item.Collaboration = &state
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateEventDetails(ctx context.Context, eventID, title string, guestCount int, occasion string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET title=$2, guest_count=$3, occasion=$4, updated_at=NOW()
		WHERE id=$1
	`, eventID, title, guestCount, occasion)
	if err != nil {
		return fmt.Errorf("update event details: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateEventStatus(ctx context.Context, eventID string, status lifecycle.Status) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET status=$2, updated_at=NOW() WHERE id=$1
	`, eventID, string(status))
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCollaborationState(ctx context.Context, eventID string, state lifecycle.CollabState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET collaboration_state=$2, updated_at=NOW() WHERE id=$1
	`, eventID, string(state))
	if err != nil {
		return fmt.Errorf("update collaboration state: %w", err)
	}
	return nil
}

// SaveSchedulingState persists the reminder tokens the scheduler issued: the
// event flag and post-event token, plus the per-wine token columns.
func (s *PostgresStore) SaveSchedulingState(ctx context.Context, event Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scheduling tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET notifications_scheduled=$2, post_event_token=$3, updated_at=NOW()
		WHERE id=$1
	`, event.ID, event.NotificationsScheduled, event.PostEventToken); err != nil {
		return fmt.Errorf("save event scheduling: %w", err)
	}

	for _, wine := range event.Wines {
		if _, err := tx.ExecContext(ctx, `
			UPDATE confirmed_wines
			SET cool_down_token=$2, remove_token=$3
			WHERE id=$1
		`, wine.ID, wine.CoolDownToken, wine.RemoveToken); err != nil {
			return fmt.Errorf("save wine tokens: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scheduling tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) listProposals(ctx context.Context, eventID string) ([]Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, course, dish_name, description, wine_suggestion, proposed_by, proposed_by_name, status, created_at
		FROM proposals
		WHERE event_id=$1
		ORDER BY created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	items := make([]Proposal, 0)
	index := map[string]int{}
	for rows.Next() {
		var item Proposal
		var status string
		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.Course,
			&item.DishName,
			&item.Description,
			&item.WineSuggestion,
			&item.ProposedBy,
			&item.ProposedByName,
			&status,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		item.Status = ProposalStatus(status)
		item.Votes = make(map[string]Vote)
		index[item.ID] = len(items)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	voteRows, err := s.db.QueryContext(ctx, `
		SELECT v.proposal_id, v.voter_id, v.voter_name, v.upvote, v.cast_at
		FROM votes v
		JOIN proposals p ON p.id = v.proposal_id
		WHERE p.event_id=$1
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer voteRows.Close()

	for voteRows.Next() {
		var proposalID string
		var vote Vote
		if err := voteRows.Scan(&proposalID, &vote.VoterID, &vote.VoterName, &vote.Upvote, &vote.CastAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if i, ok := index[proposalID]; ok {
			items[i].Votes[vote.VoterID] = vote
		}
	}
	if err := voteRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}

	commentRows, err := s.db.QueryContext(ctx, `
		SELECT c.proposal_id, c.id, c.author_id, c.author_name, c.body, c.created_at
		FROM comments c
		JOIN proposals p ON p.id = c.proposal_id
		WHERE p.event_id=$1
		ORDER BY c.created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer commentRows.Close()

	for commentRows.Next() {
		var proposalID string
		var comment Comment
		if err := commentRows.Scan(&proposalID, &comment.ID, &comment.AuthorID, &comment.AuthorName, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if i, ok := index[proposalID]; ok {
			items[i].Comments = append(items[i].Comments, comment)
		}
	}
	if err := commentRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return items, nil
}

func (s *PostgresStore) InsertProposal(ctx context.Context, proposal Proposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, event_id, course, dish_name, description, wine_suggestion, proposed_by, proposed_by_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, proposal.ID, proposal.EventID, proposal.Course, proposal.DishName, proposal.Description, proposal.WineSuggestion, proposal.ProposedBy, proposal.ProposedByName, string(proposal.Status))
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProposalStatus(ctx context.Context, proposalID string, status ProposalStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE proposals SET status=$2 WHERE id=$1`, proposalID, string(status))
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertVote(ctx context.Context, proposalID string, vote Vote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO votes (proposal_id, voter_id, voter_name, upvote, cast_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (proposal_id, voter_id)
		DO UPDATE SET upvote=EXCLUDED.upvote, cast_at=EXCLUDED.cast_at
	`, proposalID, vote.VoterID, vote.VoterName, vote.Upvote, vote.CastAt)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteVote(ctx context.Context, proposalID, voterID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM votes WHERE proposal_id=$1 AND voter_id=$2
	`, proposalID, voterID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, proposalID string, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, proposal_id, author_id, author_name, body)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, proposalID, comment.AuthorID, comment.AuthorName, comment.Text)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) listConfirmedWines(ctx context.Context, eventID string) ([]ConfirmedWine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, name, producer, course, source, quantity, category, bottle_id, cool_down_token, remove_token
		FROM confirmed_wines
		WHERE event_id=$1
		ORDER BY course ASC, name ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list confirmed wines: %w", err)
	}
	defer rows.Close()

	items := make([]ConfirmedWine, 0)
	for rows.Next() {
		var item ConfirmedWine
		var source, category string
		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.Name,
			&item.Producer,
			&item.Course,
			&source,
			&item.Quantity,
			&category,
			&item.BottleID,
			&item.CoolDownToken,
			&item.RemoveToken,
		); err != nil {
			return nil, fmt.Errorf("scan confirmed wine: %w", err)
		}
		item.Source = WineSource(source)
		item.Category = temperature.Category(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmed wines: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertConfirmedWine(ctx context.Context, wine ConfirmedWine) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confirmed_wines (id, event_id, name, producer, course, source, quantity, category, bottle_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, wine.ID, wine.EventID, wine.Name, wine.Producer, wine.Course, string(wine.Source), wine.Quantity, string(wine.Category), wine.BottleID)
	if err != nil {
		return fmt.Errorf("insert confirmed wine: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateConfirmedWine(ctx context.Context, wine ConfirmedWine) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE confirmed_wines
		SET name=$2, producer=$3, course=$4, source=$5, quantity=$6, category=$7, bottle_id=$8
		WHERE id=$1
	`, wine.ID, wine.Name, wine.Producer, wine.Course, string(wine.Source), wine.Quantity, string(wine.Category), wine.BottleID)
	if err != nil {
		return fmt.Errorf("update confirmed wine: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteConfirmedWine(ctx context.Context, wineID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM confirmed_wines WHERE id=$1`, wineID)
	if err != nil {
		return fmt.Errorf("delete confirmed wine: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertBottle(ctx context.Context, bottle CellarBottle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cellar_bottles (id, name, producer, region, vintage, quantity, category, label_image_key, added_by_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, bottle.ID, bottle.Name, bottle.Producer, bottle.Region, bottle.Vintage, bottle.Quantity, string(bottle.Category), bottle.LabelImageKey, bottle.AddedBy)
	if err != nil {
		return fmt.Errorf("insert bottle: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBottle(ctx context.Context, bottleID string) (CellarBottle, error) {
	var item CellarBottle
	var category string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, producer, region, vintage, quantity, category, label_image_key, added_by_name, created_at, updated_at
		FROM cellar_bottles
		WHERE id=$1
	`, bottleID).Scan(
		&item.ID,
		&item.Name,
		&item.Producer,
		&item.Region,
		&item.Vintage,
		&item.Quantity,
		&category,
		&item.LabelImageKey,
		&item.AddedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return CellarBottle{}, err
	}
	item.Category = temperature.Category(category)
	return item, nil
}

func (s *PostgresStore) ListBottles(ctx context.Context) ([]CellarBottle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, producer, region, vintage, quantity, category, label_image_key, added_by_name, created_at, updated_at
		FROM cellar_bottles
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list bottles: %w", err)
	}
	defer rows.Close()
	return scanBottles(rows)
}

func (s *PostgresStore) UpdateBottle(ctx context.Context, bottle CellarBottle) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cellar_bottles
		SET name=$2, producer=$3, region=$4, vintage=$5, quantity=$6, category=$7, updated_at=NOW()
		WHERE id=$1
	`, bottle.ID, bottle.Name, bottle.Producer, bottle.Region, bottle.Vintage, bottle.Quantity, string(bottle.Category))
	if err != nil {
		return fmt.Errorf("update bottle: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteBottle(ctx context.Context, bottleID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cellar_bottles WHERE id=$1`, bottleID)
	if err != nil {
		return fmt.Errorf("delete bottle: %w", err)
	}
	return nil
}

// AdjustBottleQuantity applies a delta without going below zero. The boolean
// reports whether any row changed, so callers can tell an empty bottle from a
// missing one.
func (s *PostgresStore) AdjustBottleQuantity(ctx context.Context, bottleID string, delta int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cellar_bottles
		SET quantity=quantity+$2, updated_at=NOW()
		WHERE id=$1 AND quantity+$2 >= 0
	`, bottleID, delta)
	if err != nil {
		return false, fmt.Errorf("adjust bottle quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adjust bottle quantity rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) SetBottleLabelKey(ctx context.Context, bottleID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cellar_bottles SET label_image_key=$2, updated_at=NOW() WHERE id=$1
	`, bottleID, key)
	if err != nil {
		return fmt.Errorf("set bottle label key: %w", err)
	}
	return nil
}

// SearchBottlesFTS is the Postgres full-text fallback used when no search
// index is configured.
func (s *PostgresStore) SearchBottlesFTS(ctx context.Context, query string, limit int) ([]CellarBottle, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, producer, region, vintage, quantity, category, label_image_key, added_by_name, created_at, updated_at
		FROM cellar_bottles
		WHERE search_tsv @@ plainto_tsquery('simple', $1)
		   OR name ILIKE '%' || $1 || '%'
		ORDER BY ts_rank(search_tsv, plainto_tsquery('simple', $1)) DESC, name ASC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search bottles: %w", err)
	}
	defer rows.Close()
	return scanBottles(rows)
}

func scanBottles(rows *sql.Rows) ([]CellarBottle, error) {
	items := make([]CellarBottle, 0)
	for rows.Next() {
		var item CellarBottle
		var category string
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Producer,
			&item.Region,
			&item.Vintage,
			&item.Quantity,
			&category,
			&item.LabelImageKey,
			&item.AddedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bottle: %w", err)
		}
		item.Category = temperature.Category(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bottles: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertInviteLink(ctx context.Context, link InviteLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invite_links (id, event_id, token, password_hash, created_by_name, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, link.ID, link.EventID, link.Token, link.PasswordHash, link.CreatedBy, link.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert invite link: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInviteLinkByToken(ctx context.Context, token string) (InviteLink, error) {
	var item InviteLink
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, token, password_hash, created_by_name, expires_at, access_count, created_at, revoked_at
		FROM invite_links
		WHERE token=$1
	`, token).Scan(
		&item.ID,
		&item.EventID,
		&item.Token,
		&item.PasswordHash,
		&item.CreatedBy,
		&item.ExpiresAt,
		&item.AccessCount,
		&item.CreatedAt,
		&item.RevokedAt,
	)
	if err != nil {
		return InviteLink{}, err
	}
	return item, nil
}

func (s *PostgresStore) ListInviteLinks(ctx context.Context, eventID string) ([]InviteLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, token, password_hash, created_by_name, expires_at, access_count, created_at, revoked_at
		FROM invite_links
		WHERE event_id=$1
		ORDER BY created_at DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list invite links: %w", err)
	}
	defer rows.Close()

	items := make([]InviteLink, 0)
	for rows.Next() {
		var item InviteLink
		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.Token,
			&item.PasswordHash,
			&item.CreatedBy,
			&item.ExpiresAt,
			&item.AccessCount,
			&item.CreatedAt,
			&item.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invite link: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invite links: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) IncrementInviteAccess(ctx context.Context, linkID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE invite_links SET access_count=access_count+1 WHERE id=$1
	`, linkID)
	if err != nil {
		return fmt.Errorf("increment invite access: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeInviteLink(ctx context.Context, linkID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invite_links SET revoked_at=NOW() WHERE id=$1 AND revoked_at IS NULL
	`, linkID)
	if err != nil {
		return false, fmt.Errorf("revoke invite link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke invite link rows: %w", err)
	}
	return affected > 0, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
