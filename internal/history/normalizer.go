package history

import (
	"fmt"
	"strings"

	"spinlog/internal/encoding"
	"spinlog/internal/models"
)

// Normalize turns one raw fetch item into a well-formed PlayEvent or rejects
// it. Write-side validation is strict; reading persisted logs goes through
// FilterValid instead.
func Normalize(raw *models.RawEvent, profile *models.UserProfile) (*models.PlayEvent, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil raw event")
	}
	if raw.PlayedAt <= 0 {
		return nil, fmt.Errorf("invalid play timestamp %d", raw.PlayedAt)
	}
	if profile == nil || strings.TrimSpace(profile.URI) == "" {
		return nil, fmt.Errorf("missing user profile")
	}

	artist := joinArtists(raw.Artists)
	event := &models.PlayEvent{
		Timestamp: raw.PlayedAt,
		User:      profile.Name,
		UserID:    profile.URI,
		Track:     raw.Track,
		Artist:    artist,
		URI:       raw.URI,
		ImageURL:  raw.ImageURL,
	}
	repairEvent(event)

	if !event.Valid() {
		return nil, fmt.Errorf("malformed event for track %q", raw.Track)
	}
	return event, nil
}

func joinArtists(names []string) string {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return strings.Join(cleaned, ", ")
}

// Clean applies the double-encoding repair to every entry of a loaded log.
// Returns the number of entries that changed.
func Clean(events []models.PlayEvent) int {
	changed := 0
	for i := range events {
		if repairEvent(&events[i]) {
			changed++
		}
	}
	return changed
}

func repairEvent(e *models.PlayEvent) bool {
	any := false
	if fixed, ok := encoding.Repair(e.Track); ok {
		e.Track = fixed
		any = true
	}
	if fixed, ok := encoding.Repair(e.Artist); ok {
		e.Artist = fixed
		any = true
	}
	if fixed, ok := encoding.Repair(e.User); ok {
		e.User = fixed
		any = true
	}
	return any
}

// FilterValid drops malformed entries from a persisted log without raising:
// a single bad row must not take the whole working set down with it.
func FilterValid(events []models.PlayEvent) []models.PlayEvent {
	valid := events[:0]
	for i := range events {
		if events[i].Valid() {
			valid = append(valid, events[i])
		}
	}
	return valid
}
