package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/archive"
	"spinlog/internal/structures"
	"spinlog/internal/syncer"
)

type mockSync struct {
	result *syncer.Result
	err    error
	calls  int
}

func (m *mockSync) Pass(_ context.Context) (*syncer.Result, error) {
	m.calls++
	return m.result, m.err
}

type mockArchiver struct {
	clearResult  *archive.ClearResult
	clearErr     error
	backupResult *archive.BackupResult
	backupErr    error
	backupRef    string
}

func (m *mockArchiver) Clear(_ context.Context) (*archive.ClearResult, error) {
	return m.clearResult, m.clearErr
}

func (m *mockArchiver) Backup(_ context.Context, ref string) (*archive.BackupResult, error) {
	m.backupRef = ref
	return m.backupResult, m.backupErr
}

func newAdmin(sync *mockSync, archiver *mockArchiver) *AdminController {
	conf := &structures.Config{}
	conf.Clear.Secret = "s3cret"
	return NewAdminController(conf, &mockLogger{}, sync, archiver)
}

func authed(r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Bearer s3cret")
	return r
}

func TestTrigger_RunsPassWithoutSecret(t *testing.T) {
	sync := &mockSync{result: &syncer.Result{Changed: true, NewTracks: 4}}
	admin := newAdmin(sync, &mockArchiver{})
	rec := httptest.NewRecorder()

	admin.Trigger(rec, httptest.NewRequest(http.MethodGet, "/trigger", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sync.calls)
	var result syncer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 4, result.NewTracks)
}

func TestClear_MissingSecretIs401(t *testing.T) {
	admin := newAdmin(&mockSync{}, &mockArchiver{})
	rec := httptest.NewRecorder()

	admin.Clear(rec, httptest.NewRequest(http.MethodPost, "/clear", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClear_WrongSecretIs403(t *testing.T) {
	admin := newAdmin(&mockSync{}, &mockArchiver{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/clear", nil)
	req.Header.Set("Authorization", "Bearer nope")

	admin.Clear(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClear_SecretViaQueryParam(t *testing.T) {
	archiver := &mockArchiver{clearResult: &archive.ClearResult{Skipped: true}}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Clear(rec, httptest.NewRequest(http.MethodPost, "/clear?secret=s3cret", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClear_ReturnsResult(t *testing.T) {
	archiver := &mockArchiver{clearResult: &archive.ClearResult{ItemsRemoved: 12, DateTag: "01062025", Timestamp: 5000}}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Clear(rec, authed(httptest.NewRequest(http.MethodPost, "/clear", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	var result archive.ClearResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 12, result.ItemsRemoved)
	assert.Equal(t, "01062025", result.DateTag)
}

func TestClear_SkippedWhenEmpty(t *testing.T) {
	archiver := &mockArchiver{clearResult: &archive.ClearResult{Skipped: true}}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Clear(rec, authed(httptest.NewRequest(http.MethodPost, "/clear", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"skipped":true`)
}

func TestClear_ExistingArchiveIs409(t *testing.T) {
	archiver := &mockArchiver{clearErr: archive.ErrArchiveExists}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Clear(rec, authed(httptest.NewRequest(http.MethodPost, "/clear", nil)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClear_OtherErrorIs500(t *testing.T) {
	archiver := &mockArchiver{clearErr: errors.New("store down")}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Clear(rec, authed(httptest.NewRequest(http.MethodPost, "/clear", nil)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBackup_MissingRefIs400(t *testing.T) {
	admin := newAdmin(&mockSync{}, &mockArchiver{})
	rec := httptest.NewRecorder()

	admin.Backup(rec, authed(httptest.NewRequest(http.MethodPost, "/backup", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackup_RefFromBody(t *testing.T) {
	archiver := &mockArchiver{backupResult: &archive.BackupResult{DateTag: "31052025", Count: 7}}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/backup", strings.NewReader(`{"ref":"abc123"}`)))

	admin.Backup(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", archiver.backupRef)
	assert.Contains(t, rec.Body.String(), "31052025")
}

func TestBackup_NoHistoryIs404(t *testing.T) {
	archiver := &mockArchiver{backupErr: archive.ErrNoHistory}
	admin := newAdmin(&mockSync{}, archiver)
	rec := httptest.NewRecorder()

	admin.Backup(rec, authed(httptest.NewRequest(http.MethodPost, "/backup?ref=abc", nil)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
