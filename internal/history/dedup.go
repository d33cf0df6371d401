package history

import (
	"sort"

	"spinlog/internal/models"
)

// ToleranceMillis absorbs clock-skew and retry jitter from the upstream
// fetch: two reports of the same play can differ by a few hundred ms.
const ToleranceMillis = 1000

// Merge appends the events of batch that have no duplicate already in log.
// Two events are duplicates iff userId and trackUri match and their
// timestamps differ by less than ToleranceMillis. Returns the merged log and
// the number of additions. The scan is O(n) per candidate, which is fine at
// the scale of a personal log.
func Merge(log []models.PlayEvent, batch []models.PlayEvent) ([]models.PlayEvent, int) {
	added := 0
	for i := range batch {
		if !containsDuplicate(log, &batch[i]) {
			log = append(log, batch[i])
			added++
		}
	}
	return log, added
}

func containsDuplicate(log []models.PlayEvent, e *models.PlayEvent) bool {
	for i := range log {
		if log[i].UserID == e.UserID && log[i].URI == e.URI && absDiff(log[i].Timestamp, e.Timestamp) < ToleranceMillis {
			return true
		}
	}
	return false
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Dedupe removes exact duplicates by identity key (userId, trackUri,
// timestamp), keeping first occurrence. Guards against repair-pass and merge
// artifacts after all batches are in.
func Dedupe(events []models.PlayEvent) []models.PlayEvent {
	seen := make(map[string]struct{}, len(events))
	unique := make([]models.PlayEvent, 0, len(events))
	for i := range events {
		key := events[i].IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, events[i])
	}
	return unique
}

// Sort orders events newest first, the consumption order of the log.
func Sort(events []models.PlayEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}
