package commitmsg

import (
	"fmt"

	"go.uber.org/atomic"
)

// Sync messages rotate so that the commit log stays readable when the
// service commits every few minutes. Every message carries [skip ci] so a
// CI-enabled data repository does not build on each pass.
var syncMessages = []string{
	"update listening history",
	"record new plays",
	"sync play log",
	"refresh history",
}

var syncCounter atomic.Uint64

// ForSync returns the next rotating sync message annotated with the number
// of new events.
func ForSync(newTracks int) string {
	msg := syncMessages[syncCounter.Inc()%uint64(len(syncMessages))]
	if newTracks == 1 {
		return fmt.Sprintf("%s: 1 new track [skip ci]", msg)
	}
	return fmt.Sprintf("%s: %d new tracks [skip ci]", msg, newTracks)
}

// ForClear embeds the archive date tag in brackets; restore tooling finds
// the tag by scanning commit messages for [ddmmyyyy].
func ForClear(dateTag string) string {
	return fmt.Sprintf("clear history, archive [%s] [skip ci]", dateTag)
}

// ForBackup marks a manually requested archive snapshot.
func ForBackup(dateTag string) string {
	return fmt.Sprintf("backup history [%s] [skip ci]", dateTag)
}
