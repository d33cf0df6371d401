package gitstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

const userAgent = "SpinLog/1.0"

// GitHubStore implements Store against the GitHub git-data API. A commit is
// blobs -> tree (based on the head commit's tree) -> commit -> ref PATCH
// with force:false, which makes the ref advance a compare-and-swap: GitHub
// rejects a non-fast-forward update with 422 when the head moved.
type GitHubStore struct {
	repo    string
	token   string
	branch  string
	apiBase string
	client  *http.Client
	logger  providers.Logger
}

func NewGitHubStore(conf *structures.Config, logger providers.Logger) *GitHubStore {
	return &GitHubStore{
		repo:    conf.Store.GitHub.Repo,
		token:   conf.Store.GitHub.Token,
		branch:  conf.Store.GitHub.Branch,
		apiBase: strings.TrimSuffix(conf.Store.GitHub.APIBase, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type contentResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

func (s *GitHubStore) ReadFile(ctx context.Context, path string) (*FileRead, error) {
	return s.readContents(ctx, path, "")
}

func (s *GitHubStore) ReadFileAt(ctx context.Context, path, ref string) (*FileRead, error) {
	return s.readContents(ctx, path, ref)
}

func (s *GitHubStore) readContents(ctx context.Context, path, ref string) (*FileRead, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", s.apiBase, s.repo, path)
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	status, body, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("read %s: status %d: %s", path, status, truncate(body))
	}

	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// GitHub inserts newlines into the base64 payload.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("read %s: decode: %w", path, err)
	}
	return &FileRead{Content: decoded, Version: resp.SHA}, nil
}

func (s *GitHubStore) CommitFiles(ctx context.Context, files []FileChange, message string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("empty commit")
	}

	base, err := s.headSHA(ctx)
	if err != nil {
		return "", err
	}

	type treeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}
	entries := make([]treeEntry, 0, len(files))
	for _, f := range files {
		blobSHA, err := s.createBlob(ctx, f.Content)
		if err != nil {
			return "", err
		}
		entries = append(entries, treeEntry{Path: f.Path, Mode: "100644", Type: "blob", SHA: blobSHA})
	}

	treeSHA, err := s.post(ctx, fmt.Sprintf("%s/repos/%s/git/trees", s.apiBase, s.repo), map[string]any{
		"base_tree": base,
		"tree":      entries,
	})
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}

	commitSHA, err := s.post(ctx, fmt.Sprintf("%s/repos/%s/git/commits", s.apiBase, s.repo), map[string]any{
		"message": message,
		"tree":    treeSHA,
		"parents": []string{base},
	})
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}

	if err := s.advanceRef(ctx, commitSHA); err != nil {
		return "", err
	}
	return commitSHA, nil
}

func (s *GitHubStore) ListDir(ctx context.Context, path string) ([]DirEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", s.apiBase, s.repo, path)
	status, body, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list %s: status %d: %s", path, status, truncate(body))
	}

	var items []contentResponse
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	entries := make([]DirEntry, 0, len(items))
	for _, it := range items {
		if it.Type == "file" {
			entries = append(entries, DirEntry{Name: it.Name, Path: it.Path})
		}
	}
	return entries, nil
}

func (s *GitHubStore) ReadCommit(ctx context.Context, ref string) (*CommitInfo, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/commits/%s", s.apiBase, s.repo, url.PathEscape(ref))
	status, body, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	// GitHub answers 422 for refs that are not even well-formed SHAs.
	if status == http.StatusNotFound || status == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("read commit %s: status %d: %s", ref, status, truncate(body))
	}

	var resp struct {
		SHA     string `json:"sha"`
		Parents []struct {
			SHA string `json:"sha"`
		} `json:"parents"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("read commit %s: %w", ref, err)
	}

	info := &CommitInfo{
		Version: resp.SHA,
		Message: resp.Commit.Message,
		Time:    resp.Commit.Author.Date,
	}
	for _, p := range resp.Parents {
		info.Parents = append(info.Parents, p.SHA)
	}
	return info, nil
}

func (s *GitHubStore) headSHA(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/git/refs/heads/%s", s.apiBase, s.repo, s.branch)
	status, body, err := s.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("get branch head: status %d: %s", status, truncate(body))
	}
	var resp struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("get branch head: %w", err)
	}
	return resp.Object.SHA, nil
}

func (s *GitHubStore) createBlob(ctx context.Context, content []byte) (string, error) {
	sha, err := s.post(ctx, fmt.Sprintf("%s/repos/%s/git/blobs", s.apiBase, s.repo), map[string]any{
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	})
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return sha, nil
}

func (s *GitHubStore) advanceRef(ctx context.Context, commitSHA string) error {
	endpoint := fmt.Sprintf("%s/repos/%s/git/refs/heads/%s", s.apiBase, s.repo, s.branch)
	payload, _ := json.Marshal(map[string]any{"sha": commitSHA, "force": false})

	status, body, err := s.do(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		s.logger.Warnf(providers.TypeStore, "ref advance rejected (head moved): %s", truncate(body))
		return ErrCommitConflict
	}
	if status != http.StatusOK {
		return fmt.Errorf("update ref: status %d: %s", status, truncate(body))
	}
	return nil
}

// post sends a JSON payload and returns the sha of the created object.
func (s *GitHubStore) post(ctx context.Context, endpoint string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	status, body, err := s.do(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", status, truncate(body))
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

func (s *GitHubStore) do(ctx context.Context, method, endpoint string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func truncate(b []byte) string {
	const limit = 300
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
