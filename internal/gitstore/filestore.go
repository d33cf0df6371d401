package gitstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"spinlog/internal/providers"
)

// FileStore is a local content-addressable store. Every object (blob, tree,
// commit) is an immutable zstd-compressed file named by the sha256 of its
// envelope; HEAD points at the current commit and only ever advances by
// compare-and-swap on the expected parent.
type FileStore struct {
	dir        string
	compressor CompressorInterface
	logger     providers.Logger
	mu         sync.Mutex
}

type objectEnvelope struct {
	Type    string            `json:"type"`
	Data    []byte            `json:"data,omitempty"`    // blob
	Entries map[string]string `json:"entries,omitempty"` // tree: path -> blob hash
	Tree    string            `json:"tree,omitempty"`    // commit
	Parents []string          `json:"parents,omitempty"` // commit
	Message string            `json:"message,omitempty"` // commit
	TimeMs  int64             `json:"timeMs,omitempty"`  // commit
}

func NewFileStore(dir string, compressor CompressorInterface, logger providers.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "objects"), 0755); err != nil {
		return nil, fmt.Errorf("cannot create store dir: %w", err)
	}
	return &FileStore{dir: dir, compressor: compressor, logger: logger}, nil
}

func (s *FileStore) ReadFile(ctx context.Context, path string) (*FileRead, error) {
	head, err := s.readHead()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, nil
	}
	return s.ReadFileAt(ctx, path, head)
}

func (s *FileStore) ReadFileAt(_ context.Context, path, ref string) (*FileRead, error) {
	tree, err := s.loadTree(ref)
	if err != nil {
		return nil, err
	}
	blobHash, ok := tree[path]
	if !ok {
		return nil, nil
	}
	blob, err := s.loadObject(blobHash)
	if err != nil {
		return nil, err
	}
	if blob.Type != "blob" {
		return nil, fmt.Errorf("object %s is %s, expected blob", blobHash, blob.Type)
	}
	return &FileRead{Content: blob.Data, Version: blobHash}, nil
}

// CommitFiles content-addresses each file, layers a new tree over the
// current head's tree, records a commit whose parent is the head read at
// entry, and advances HEAD. A head that moved in between fails the whole
// commit; the objects already written are unreachable garbage, never
// visible state.
func (s *FileStore) CommitFiles(ctx context.Context, files []FileChange, message string) (string, error) {
	base, err := s.readHead()
	if err != nil {
		return "", err
	}
	return s.commitOnto(ctx, base, files, message)
}

func (s *FileStore) commitOnto(_ context.Context, base string, files []FileChange, message string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("empty commit")
	}

	tree := make(map[string]string)
	if base != "" {
		baseTree, err := s.loadTree(base)
		if err != nil {
			return "", err
		}
		for k, v := range baseTree {
			tree[k] = v
		}
	}

	for _, f := range files {
		blobHash, err := s.putObject(&objectEnvelope{Type: "blob", Data: f.Content})
		if err != nil {
			return "", err
		}
		tree[f.Path] = blobHash
	}

	treeHash, err := s.putObject(&objectEnvelope{Type: "tree", Entries: tree})
	if err != nil {
		return "", err
	}

	commit := &objectEnvelope{
		Type:    "commit",
		Tree:    treeHash,
		Message: message,
		TimeMs:  time.Now().UnixMilli(),
	}
	if base != "" {
		commit.Parents = []string{base}
	}
	commitHash, err := s.putObject(commit)
	if err != nil {
		return "", err
	}

	if err := s.advanceHead(base, commitHash); err != nil {
		return "", err
	}
	return commitHash, nil
}

func (s *FileStore) ListDir(_ context.Context, path string) ([]DirEntry, error) {
	head, err := s.readHead()
	if err != nil || head == "" {
		return nil, err
	}
	tree, err := s.loadTree(head)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	var entries []DirEntry
	for p := range tree {
		if strings.HasPrefix(p, prefix) {
			entries = append(entries, DirEntry{Name: p[len(prefix):], Path: p})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *FileStore) ReadCommit(_ context.Context, ref string) (*CommitInfo, error) {
	obj, err := s.loadObject(ref)
	if errors.Is(err, fs.ErrNotExist) {
		// An unknown ref is absence, not a store failure.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if obj.Type != "commit" {
		return nil, fmt.Errorf("object %s is %s, expected commit", ref, obj.Type)
	}
	return &CommitInfo{
		Version: ref,
		Parents: obj.Parents,
		Message: obj.Message,
		Time:    time.UnixMilli(obj.TimeMs),
	}, nil
}

// advanceHead is the single conditional update of the store: HEAD moves from
// expected to next or not at all.
func (s *FileStore) advanceHead(expected, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readHeadLocked()
	if err != nil {
		return err
	}
	if current != expected {
		return ErrCommitConflict
	}

	tmp := s.headPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(next), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.headPath())
}

func (s *FileStore) readHead() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHeadLocked()
}

func (s *FileStore) readHeadLocked() (string, error) {
	data, err := os.ReadFile(s.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) loadTree(commitRef string) (map[string]string, error) {
	commit, err := s.loadObject(commitRef)
	if err != nil {
		return nil, err
	}
	if commit.Type != "commit" {
		return nil, fmt.Errorf("object %s is %s, expected commit", commitRef, commit.Type)
	}
	treeObj, err := s.loadObject(commit.Tree)
	if err != nil {
		return nil, err
	}
	if treeObj.Type != "tree" {
		return nil, fmt.Errorf("object %s is %s, expected tree", commit.Tree, treeObj.Type)
	}
	return treeObj.Entries, nil
}

func (s *FileStore) putObject(obj *objectEnvelope) (string, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	path := s.objectPath(hash)
	if _, err := os.Stat(path); err == nil {
		// Content-addressed: identical bytes already stored.
		return hash, nil
	}

	compressed, err := s.compressor.Compress(raw)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return hash, nil
}

func (s *FileStore) loadObject(hash string) (*objectEnvelope, error) {
	data, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		return nil, fmt.Errorf("unknown object %s: %w", hash, err)
	}
	raw, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt object %s: %w", hash, err)
	}
	var obj objectEnvelope
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("corrupt object %s: %w", hash, err)
	}
	return &obj, nil
}

func (s *FileStore) headPath() string {
	return filepath.Join(s.dir, "HEAD")
}

func (s *FileStore) objectPath(hash string) string {
	return filepath.Join(s.dir, "objects", hash[:2], hash[2:]+".zst")
}
