package gitstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/providers"
)

// nopLogger keeps this package free of the shared mocks: testutil imports
// gitstore, so pulling it in here would close an import cycle.
type nopLogger struct{}

func (nopLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (nopLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (nopLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (nopLogger) Close()                                                  {}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	compressor, err := NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(compressor.Close)

	store, err := NewFileStore(t.TempDir(), compressor, nopLogger{})
	require.NoError(t, err)
	return store
}

func TestReadFile_AbsentIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	read, err := s.ReadFile(context.Background(), "history.json")

	require.NoError(t, err)
	assert.Nil(t, read)
}

func TestCommitFiles_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	version, err := s.CommitFiles(context.Background(), []FileChange{
		{Path: "history.json", Content: []byte(`[{"timestamp":1}]`)},
		{Path: "live.json", Content: []byte(`{"friends":[]}`)},
	}, "initial")
	require.NoError(t, err)
	require.NotEmpty(t, version)

	read, err := s.ReadFile(context.Background(), "history.json")
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Equal(t, `[{"timestamp":1}]`, string(read.Content))
}

func TestCommitFiles_UnlistedFilesUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CommitFiles(ctx, []FileChange{
		{Path: "history.json", Content: []byte("[]")},
		{Path: "last-clear.json", Content: []byte(`{"lastClearTimestamp":0}`)},
	}, "first")
	require.NoError(t, err)

	_, err = s.CommitFiles(ctx, []FileChange{
		{Path: "history.json", Content: []byte(`[{"timestamp":2}]`)},
	}, "second")
	require.NoError(t, err)

	watermark, err := s.ReadFile(ctx, "last-clear.json")
	require.NoError(t, err)
	require.NotNil(t, watermark)
	assert.Equal(t, `{"lastClearTimestamp":0}`, string(watermark.Content))
}

func TestReadFileAt_HistoricalVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v1, err := s.CommitFiles(ctx, []FileChange{{Path: "history.json", Content: []byte("old")}}, "v1")
	require.NoError(t, err)
	_, err = s.CommitFiles(ctx, []FileChange{{Path: "history.json", Content: []byte("new")}}, "v2")
	require.NoError(t, err)

	old, err := s.ReadFileAt(ctx, "history.json", v1)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, "old", string(old.Content))

	current, err := s.ReadFile(ctx, "history.json")
	require.NoError(t, err)
	assert.Equal(t, "new", string(current.Content))
}

func TestReadCommit_ParentChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v1, err := s.CommitFiles(ctx, []FileChange{{Path: "a", Content: []byte("1")}}, "first")
	require.NoError(t, err)
	v2, err := s.CommitFiles(ctx, []FileChange{{Path: "a", Content: []byte("2")}}, "second")
	require.NoError(t, err)

	info, err := s.ReadCommit(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, []string{v1}, info.Parents)
	assert.Equal(t, "second", info.Message)

	root, err := s.ReadCommit(ctx, v1)
	require.NoError(t, err)
	assert.Empty(t, root.Parents)
}

func TestReadCommit_UnknownRefIsAbsent(t *testing.T) {
	s := newTestStore(t)

	info, err := s.ReadCommit(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")

	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestListDir_ArchiveEnumeration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CommitFiles(ctx, []FileChange{
		{Path: "archive/01012025.json", Content: []byte("[]")},
		{Path: "archive/02012025.json", Content: []byte("[]")},
		{Path: "history.json", Content: []byte("[]")},
	}, "seed")
	require.NoError(t, err)

	entries, err := s.ListDir(ctx, "archive")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "01012025.json", entries[0].Name)
	assert.Equal(t, "archive/02012025.json", entries[1].Path)
}

func TestCommit_StaleBaseConflictLeavesHeadUntouched(t *testing.T) {
	// Simulates a concurrent writer: objects for the losing commit are
	// created, but the ref advance must fail and the visible state must be
	// exactly what the winning commit left.
	s := newTestStore(t)
	ctx := context.Background()

	v1, err := s.CommitFiles(ctx, []FileChange{{Path: "history.json", Content: []byte("base")}}, "base")
	require.NoError(t, err)

	v2, err := s.CommitFiles(ctx, []FileChange{{Path: "history.json", Content: []byte("winner")}}, "winner")
	require.NoError(t, err)

	before, err := s.ReadFile(ctx, "history.json")
	require.NoError(t, err)

	// Loser still believes v1 is the head.
	_, err = s.commitOnto(ctx, v1, []FileChange{{Path: "history.json", Content: []byte("loser")}}, "loser")
	require.ErrorIs(t, err, ErrCommitConflict)

	after, err := s.ReadFile(ctx, "history.json")
	require.NoError(t, err)
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.Version, after.Version)

	head, err := s.readHead()
	require.NoError(t, err)
	assert.Equal(t, v2, head)
}

func TestPutObject_Deduplicates(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.putObject(&objectEnvelope{Type: "blob", Data: []byte("same")})
	require.NoError(t, err)
	h2, err := s.putObject(&objectEnvelope{Type: "blob", Data: []byte("same")})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}
