// Package gitstore provides atomic multi-file transactions against a
// git-like content-addressable backend, plus point-in-time reads. Two
// backends exist: a local on-disk store and the GitHub git-data API.
package gitstore

import (
	"context"
	"errors"
	"time"
)

// ErrCommitConflict is returned when the head reference moved between
// reading the base version and advancing the ref. The caller must re-read
// and recompute before any retry; the store never retries on its own.
var ErrCommitConflict = errors.New("commit conflict: head moved")

// FileRead is the content of a file and its backend version identifier.
type FileRead struct {
	Content []byte
	Version string
}

// FileChange is one file of an atomic multi-file commit.
type FileChange struct {
	Path    string
	Content []byte
}

type DirEntry struct {
	Name string
	Path string
}

// CommitInfo describes one version of the store.
type CommitInfo struct {
	Version string
	Parents []string
	Message string
	Time    time.Time
}

// Store is the versioned file store contract. ReadFile returns (nil, nil)
// for an absent file: not-found is not an error. CommitFiles either updates
// all listed files in one new version and advances the head, or changes
// nothing visible.
type Store interface {
	ReadFile(ctx context.Context, path string) (*FileRead, error)
	ReadFileAt(ctx context.Context, path, ref string) (*FileRead, error)
	CommitFiles(ctx context.Context, files []FileChange, message string) (string, error)
	ListDir(ctx context.Context, path string) ([]DirEntry, error)
	ReadCommit(ctx context.Context, ref string) (*CommitInfo, error)
}

// Well-known paths of the listening log layout.
const (
	HistoryPath   = "history.json"
	LivePath      = "live.json"
	WatermarkPath = "last-clear.json"
	ArchiveDir    = "archive"
)
