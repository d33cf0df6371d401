package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"spinlog/internal/archive"
	"spinlog/internal/gitstore"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
	"spinlog/internal/syncer"
)

// SyncRunner triggers one sync pass.
type SyncRunner interface {
	Pass(ctx context.Context) (*syncer.Result, error)
}

// ArchiveRunner runs the clear and backup cycles.
type ArchiveRunner interface {
	Clear(ctx context.Context) (*archive.ClearResult, error)
	Backup(ctx context.Context, ref string) (*archive.BackupResult, error)
}

// AdminController exposes the operational endpoints. Clear and backup
// require the shared secret (absent is 401, wrong is 403); trigger is open,
// a pass is idempotent and overlap-protected.
type AdminController struct {
	conf    *structures.Config
	logger  providers.Logger
	sync    SyncRunner
	archive ArchiveRunner
}

func NewAdminController(conf *structures.Config, logger providers.Logger, sync SyncRunner, archiver ArchiveRunner) *AdminController {
	return &AdminController{
		conf:    conf,
		logger:  logger,
		sync:    sync,
		archive: archiver,
	}
}

func (c *AdminController) authorize(w http.ResponseWriter, r *http.Request) bool {
	secret := r.Header.Get("Authorization")
	secret = strings.TrimPrefix(secret, "Bearer ")
	if secret == "" {
		secret = r.URL.Query().Get("secret")
	}
	if secret == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if secret != c.conf.Clear.Secret {
		c.logger.Warnf(providers.GetLogTypeByRequestType(r.Method), "rejected %s with wrong secret", r.URL.Path)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (c *AdminController) Trigger(w http.ResponseWriter, r *http.Request) {
	result, err := c.sync.Pass(r.Context())
	if err != nil {
		if errors.Is(err, gitstore.ErrCommitConflict) {
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}
		c.logger.Errorf(providers.TypeSync, "triggered pass failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (c *AdminController) Clear(w http.ResponseWriter, r *http.Request) {
	if !c.authorize(w, r) {
		return
	}
	result, err := c.archive.Clear(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrArchiveExists), errors.Is(err, gitstore.ErrCommitConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			c.logger.Errorf(providers.TypeClear, "clear failed: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, result)
}

type backupRequest struct {
	Ref string `json:"ref"`
}

func (c *AdminController) Backup(w http.ResponseWriter, r *http.Request) {
	if !c.authorize(w, r) {
		return
	}

	var payload backupRequest
	if r.Body != nil {
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload)
	}
	if payload.Ref == "" {
		payload.Ref = r.URL.Query().Get("ref")
	}
	if payload.Ref == "" {
		http.Error(w, "missing ref", http.StatusBadRequest)
		return
	}

	result, err := c.archive.Backup(r.Context(), payload.Ref)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrNoHistory):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, archive.ErrArchiveExists), errors.Is(err, gitstore.ErrCommitConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			c.logger.Errorf(providers.TypeClear, "backup %s failed: %v", payload.Ref, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}
