package app

import (
	"convivio/api/internal/ledger"
	"convivio/api/internal/lifecycle"
	"convivio/api/internal/schedule"
	"convivio/api/internal/store"
)

func eventView(event store.Event) map[string]any {
	proposals := make([]map[string]any, 0, len(event.Proposals))
	for i := range event.Proposals {
		proposals = append(proposals, proposalView(event.Proposals[i]))
	}
	wines := make([]map[string]any, 0, len(event.Wines))
	for _, wine := range event.Wines {
		wines = append(wines, wineView(wine))
	}

	view := map[string]any{
		"id":                     event.ID,
		"title":                  event.Title,
		"date":                   event.Date,
		"guestCount":             event.GuestCount,
		"occasion":               event.Occasion,
		"status":                 event.Status,
		"notificationsScheduled": event.NotificationsScheduled,
		"createdBy":              event.CreatedBy,
		"createdAt":              event.CreatedAt,
		"updatedAt":              event.UpdatedAt,
		"proposals":              proposals,
		"wines":                  wines,
	}
	if event.Collaboration != nil {
		view["collaborationState"] = *event.Collaboration
	}
	view["capabilities"] = capabilitiesView(event)
	return view
}

// capabilitiesView re-derives the lifecycle gates on every read so clients
// never act on a stale cached predicate.
func capabilitiesView(event store.Event) map[string]bool {
	pairings := len(acceptedPairings(event))
	return map[string]bool{
		"canEditDishes":     lifecycle.CanEditDishes(event.Status),
		"canConfirmWines":   lifecycle.CanConfirmWines(event.Status, pairings),
		"canConfirmDinner":  lifecycle.CanConfirmDinner(event.Status),
		"canGenerateInvite": lifecycle.CanGenerateInvite(event.Status),
		"canCompleteDinner": lifecycle.CanCompleteDinner(event.Status, len(event.Wines)),
		"canRegenerateMenu": lifecycle.CanRegenerateMenu(event.Status),
	}
}

func eventSummaryView(event store.Event) map[string]any {
	view := map[string]any{
		"id":         event.ID,
		"title":      event.Title,
		"date":       event.Date,
		"guestCount": event.GuestCount,
		"occasion":   event.Occasion,
		"status":     event.Status,
	}
	if event.Collaboration != nil {
		view["collaborationState"] = *event.Collaboration
	}
	return view
}

func proposalView(proposal store.Proposal) map[string]any {
	votes := make([]map[string]any, 0, len(proposal.Votes))
	for _, vote := range proposal.Votes {
		votes = append(votes, map[string]any{
			"voterId":   vote.VoterID,
			"voterName": vote.VoterName,
			"upvote":    vote.Upvote,
			"castAt":    vote.CastAt,
		})
	}
	comments := make([]map[string]any, 0, len(proposal.Comments))
	for _, comment := range ledger.CommentsNewestFirst(&proposal) {
		comments = append(comments, map[string]any{
			"id":         comment.ID,
			"authorId":   comment.AuthorID,
			"authorName": comment.AuthorName,
			"text":       comment.Text,
			"createdAt":  comment.CreatedAt,
		})
	}

	return map[string]any{
		"id":             proposal.ID,
		"eventId":        proposal.EventID,
		"course":         proposal.Course,
		"dishName":       proposal.DishName,
		"description":    proposal.Description,
		"wineSuggestion": proposal.WineSuggestion,
		"proposedBy":     proposal.ProposedBy,
		"proposedByName": proposal.ProposedByName,
		"status":         proposal.Status,
		"createdAt":      proposal.CreatedAt,
		"upvotes":        ledger.Upvotes(&proposal),
		"downvotes":      ledger.Downvotes(&proposal),
		"score":          ledger.Score(&proposal),
		"votes":          votes,
		"comments":       comments,
	}
}

func wineView(wine store.ConfirmedWine) map[string]any {
	view := map[string]any{
		"id":       wine.ID,
		"eventId":  wine.EventID,
		"name":     wine.Name,
		"producer": wine.Producer,
		"course":   wine.Course,
		"source":   wine.Source,
		"quantity": wine.Quantity,
		"category": wine.Category,
	}
	if wine.BottleID != nil {
		view["bottleId"] = *wine.BottleID
	}
	return view
}

func bottleView(bottle store.CellarBottle) map[string]any {
	return map[string]any{
		"id":            bottle.ID,
		"name":          bottle.Name,
		"producer":      bottle.Producer,
		"region":        bottle.Region,
		"vintage":       bottle.Vintage,
		"quantity":      bottle.Quantity,
		"category":      bottle.Category,
		"hasLabelImage": bottle.LabelImageKey != "",
		"addedBy":       bottle.AddedBy,
		"createdAt":     bottle.CreatedAt,
		"updatedAt":     bottle.UpdatedAt,
	}
}

func inviteLinkView(link store.InviteLink) map[string]any {
	view := map[string]any{
		"id":                link.ID,
		"eventId":           link.EventID,
		"token":             link.Token,
		"passwordProtected": link.PasswordHash != nil,
		"accessCount":       link.AccessCount,
		"createdBy":         link.CreatedBy,
		"createdAt":         link.CreatedAt,
		"revoked":           link.RevokedAt != nil,
	}
	if link.ExpiresAt != nil {
		view["expiresAt"] = *link.ExpiresAt
	}
	return view
}

func planEntryView(entry schedule.Entry) map[string]any {
	view := map[string]any{
		"wineId":   entry.WineID,
		"wineName": entry.WineName,
		"category": entry.Category,
		"putIn":    entry.PutIn,
	}
	if entry.TakeOut != nil {
		view["takeOut"] = *entry.TakeOut
	}
	return view
}

func menuRevisionView(revision MenuRevision) map[string]any {
	return map[string]any{
		"menu":   revision.Menu,
		"commit": commitView(revision.Commit),
	}
}

func commitView(commit store.MenuCommitInfo) map[string]any {
	return map[string]any{
		"hash":      commit.Hash,
		"message":   commit.Message,
		"author":    commit.Author,
		"createdAt": commit.CreatedAt,
	}
}
