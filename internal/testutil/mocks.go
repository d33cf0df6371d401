package testutil

import (
	"context"
	"sync"

	"spinlog/internal/gitstore"
	"spinlog/internal/models"
	"spinlog/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockStore is an in-memory gitstore.Store with full version history.
type MockStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	versions  []map[string][]byte
	Messages  []string
	CommitErr error
}

func NewMockStore() *MockStore {
	return &MockStore{files: make(map[string][]byte)}
}

func (m *MockStore) Seed(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *MockStore) ReadFile(_ context.Context, path string) (*gitstore.FileRead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &gitstore.FileRead{Content: content, Version: "mock"}, nil
}

func (m *MockStore) ReadFileAt(_ context.Context, path, ref string) (*gitstore.FileRead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i := range m.versions {
		if versionRef(i) == ref {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil
	}
	content, ok := m.versions[idx][path]
	if !ok {
		return nil, nil
	}
	return &gitstore.FileRead{Content: content, Version: ref}, nil
}

func (m *MockStore) CommitFiles(_ context.Context, files []gitstore.FileChange, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommitErr != nil {
		return "", m.CommitErr
	}
	for _, f := range files {
		m.files[f.Path] = f.Content
	}
	snapshot := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		snapshot[k] = v
	}
	m.versions = append(m.versions, snapshot)
	m.Messages = append(m.Messages, message)
	return versionRef(len(m.versions) - 1), nil
}

func (m *MockStore) ListDir(_ context.Context, path string) ([]gitstore.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := path + "/"
	var entries []gitstore.DirEntry
	for p := range m.files {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			entries = append(entries, gitstore.DirEntry{Name: p[len(prefix):], Path: p})
		}
	}
	return entries, nil
}

func (m *MockStore) ReadCommit(_ context.Context, ref string) (*gitstore.CommitInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.versions {
		if versionRef(i) == ref {
			info := &gitstore.CommitInfo{Version: ref, Message: m.Messages[i]}
			if i > 0 {
				info.Parents = []string{versionRef(i - 1)}
			}
			return info, nil
		}
	}
	return nil, nil
}

// CommitCount reports how many commits landed.
func (m *MockStore) CommitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.versions)
}

func versionRef(i int) string {
	return "v" + string(rune('1'+i))
}

// MockFetcher implements syncer.Fetcher with canned per-user results.
type MockFetcher struct {
	Profiles map[string]*models.UserProfile
	Recent   map[string][]models.RawEvent
	Current  map[string]*models.RawEvent
	Errs     map[string]error
	mu       sync.Mutex
	Calls    int
}

func (m *MockFetcher) RefreshCredential(_ context.Context, refreshToken string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if err := m.Errs[refreshToken]; err != nil {
		return "", err
	}
	return "token-" + refreshToken, nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, accessToken string) (*models.UserProfile, error) {
	key := accessToken[len("token-"):]
	if err := m.Errs["profile-"+key]; err != nil {
		return nil, err
	}
	return m.Profiles[key], nil
}

func (m *MockFetcher) FetchRecentEvents(_ context.Context, accessToken string, _ int64) ([]models.RawEvent, error) {
	key := accessToken[len("token-"):]
	if err := m.Errs["recent-"+key]; err != nil {
		return nil, err
	}
	return m.Recent[key], nil
}

func (m *MockFetcher) FetchCurrentEvent(_ context.Context, accessToken string) (*models.RawEvent, error) {
	key := accessToken[len("token-"):]
	return m.Current[key], nil
}
