// Package schedule computes cooling timelines for confirmed wines and turns
// them into reminders registered with the notification collaborator.
package schedule

import (
	"sort"
	"time"

	"convivio/api/internal/store"
	"convivio/api/internal/temperature"
)

// Entry is one wine's cooling window. PutIn is when the bottle goes into the
// fridge; TakeOut, when set, is when it comes back out to approach serving
// temperature. Wines that are served at cellar temperature never get entries.
type Entry struct {
	WineID   string
	WineName string
	Category temperature.Category
	PutIn    time.Time
	TakeOut  *time.Time
}

// Plan derives the cooling entries for a dinner served at serveAt. Wines with
// zero quantity are treated as no longer wanted and skipped; categories whose
// profile needs no cooling are skipped too. Entries come back ordered by
// PutIn, earliest first.
func Plan(wines []store.ConfirmedWine, serveAt time.Time) []Entry {
	var entries []Entry
	for _, wine := range wines {
		if wine.Quantity <= 0 {
			continue
		}
		profile := temperature.ProfileFor(wine.Category)
		if !profile.NeedsCooling {
			continue
		}
		entry := Entry{
			WineID:   wine.ID,
			WineName: wine.Name,
			Category: wine.Category,
			PutIn:    serveAt.Add(-profile.LeadTime),
		}
		if profile.WarmUpWindow > 0 {
			takeOut := serveAt.Add(-profile.WarmUpWindow)
			entry.TakeOut = &takeOut
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PutIn.Before(entries[j].PutIn)
	})
	return entries
}
