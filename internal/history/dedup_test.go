package history

import (
	"testing"

	"spinlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(userID, uri string, ts int64) models.PlayEvent {
	return models.PlayEvent{
		Timestamp: ts,
		User:      "alice",
		UserID:    userID,
		Track:     "Track " + uri,
		Artist:    "Artist",
		URI:       uri,
	}
}

func TestMerge_WithinToleranceIsDuplicate(t *testing.T) {
	log := []models.PlayEvent{event("u1", "t1", 10_000)}

	merged, added := Merge(log, []models.PlayEvent{event("u1", "t1", 10_500)})

	assert.Equal(t, 0, added)
	assert.Len(t, merged, 1)
}

func TestMerge_OutsideToleranceIsKept(t *testing.T) {
	log := []models.PlayEvent{event("u1", "t1", 10_000)}

	merged, added := Merge(log, []models.PlayEvent{event("u1", "t1", 11_500)})

	assert.Equal(t, 1, added)
	assert.Len(t, merged, 2)
}

func TestMerge_ExactToleranceBoundaryIsKept(t *testing.T) {
	// The window is strict: |diff| < 1000, so exactly 1000ms apart is new.
	log := []models.PlayEvent{event("u1", "t1", 10_000)}

	_, added := Merge(log, []models.PlayEvent{event("u1", "t1", 11_000)})

	assert.Equal(t, 1, added)
}

func TestMerge_DifferentUserNotDuplicate(t *testing.T) {
	log := []models.PlayEvent{event("u1", "t1", 10_000)}

	_, added := Merge(log, []models.PlayEvent{event("u2", "t1", 10_000)})

	assert.Equal(t, 1, added)
}

func TestMerge_DifferentTrackNotDuplicate(t *testing.T) {
	log := []models.PlayEvent{event("u1", "t1", 10_000)}

	_, added := Merge(log, []models.PlayEvent{event("u1", "t2", 10_000)})

	assert.Equal(t, 1, added)
}

func TestDedupe_RemovesExactKeys(t *testing.T) {
	events := []models.PlayEvent{
		event("u1", "t1", 10_000),
		event("u1", "t1", 10_000),
		event("u1", "t1", 10_001),
	}

	unique := Dedupe(events)

	assert.Len(t, unique, 2)
}

func TestSort_NewestFirst(t *testing.T) {
	events := []models.PlayEvent{
		event("u1", "t1", 1),
		event("u1", "t2", 3),
		event("u1", "t3", 2),
	}

	Sort(events)

	require.Len(t, events, 3)
	assert.Equal(t, int64(3), events[0].Timestamp)
	assert.Equal(t, int64(2), events[1].Timestamp)
	assert.Equal(t, int64(1), events[2].Timestamp)
}
