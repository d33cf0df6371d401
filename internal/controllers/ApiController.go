package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"spinlog/internal/analytics"
	"spinlog/internal/gitstore"
	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/supabase"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ApiController struct {
	logger  providers.Logger
	store   gitstore.Store
	engine  *analytics.Engine
	archive *supabase.Client
	cache   providers.CacheProviderInterface
}

func NewApiController(
	logger providers.Logger,
	store gitstore.Store,
	engine *analytics.Engine,
	archive *supabase.Client,
	cache providers.CacheProviderInterface,
) *ApiController {
	return &ApiController{
		logger:  logger,
		store:   store,
		engine:  engine,
		archive: archive,
		cache:   cache,
	}
}

// Responses change on every commit; only the in-process cache may hold them.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		noStore(w)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "compute %s: %v", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	noStore(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetLive serves the current "who is listening" snapshot straight from the
// store, without caching: it is the one view that must never lag.
func (ac *ApiController) GetLive(w http.ResponseWriter, r *http.Request) {
	read, err := ac.store.ReadFile(r.Context(), gitstore.LivePath)
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "read live: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	noStore(w)
	if read == nil {
		_, _ = w.Write([]byte(`{"friends":[]}`))
		return
	}
	_, _ = w.Write(read.Content)
}

func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "history", func() (any, error) {
		read, err := ac.store.ReadFile(r.Context(), gitstore.HistoryPath)
		if err != nil {
			return nil, err
		}
		if read == nil || len(read.Content) == 0 {
			return []models.PlayEvent{}, nil
		}
		var events []models.PlayEvent
		if err := json.Unmarshal(read.Content, &events); err != nil {
			return nil, err
		}
		return events, nil
	})
}

// archivePage mirrors the shape the secondary store hands back, so both
// data paths serve the same payload.
type archivePage struct {
	Data  []models.PlayEvent `json:"data"`
	Count int                `json:"count"`
}

// GetArchive pages through everything ever played, newest first. Backed by
// the secondary store when enabled, otherwise reconstructed from the
// primary store's archive files.
func (ac *ApiController) GetArchive(w http.ResponseWriter, r *http.Request) {
	limit, offset, search, err := pageParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cacheKey := fmt.Sprintf("archive:%d:%d:%s", limit, offset, search)
	ac.serveFromCacheOrCompute(w, cacheKey, func() (any, error) {
		if ac.archive != nil {
			records, total, err := ac.archive.QueryRecords(r.Context(), supabase.QueryOptions{
				Limit:  limit,
				Offset: offset,
				Search: search,
			})
			if err != nil {
				return nil, err
			}
			items := make([]models.PlayEvent, 0, len(records))
			for _, rec := range records {
				items = append(items, rec.ToEvent())
			}
			return &archivePage{Data: items, Count: total}, nil
		}

		events, err := ac.engine.Events(r.Context())
		if err != nil {
			return nil, err
		}
		events = filterSearch(events, search)
		total := len(events)
		if offset > len(events) {
			offset = len(events)
		}
		end := offset + limit
		if end > len(events) {
			end = len(events)
		}
		return &archivePage{Data: events[offset:end], Count: total}, nil
	})
}

func (ac *ApiController) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "achievements", func() (any, error) {
		return ac.engine.Achievements(r.Context())
	})
}

func (ac *ApiController) GetGoals(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "goals", func() (any, error) {
		return ac.engine.Goals(r.Context())
	})
}

func (ac *ApiController) GetInsights(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "insights", func() (any, error) {
		return ac.engine.Insights(r.Context())
	})
}

func pageParams(r *http.Request) (limit, offset int, search string, err error) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, "", fmt.Errorf("invalid limit")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, "", fmt.Errorf("invalid offset")
		}
	}
	return limit, offset, r.URL.Query().Get("search"), nil
}

func filterSearch(events []models.PlayEvent, search string) []models.PlayEvent {
	if search == "" {
		return events
	}
	needle := strings.ToLower(search)
	out := make([]models.PlayEvent, 0, len(events))
	for i := range events {
		e := &events[i]
		if strings.Contains(strings.ToLower(e.Track), needle) ||
			strings.Contains(strings.ToLower(e.Artist), needle) ||
			strings.Contains(strings.ToLower(e.User), needle) {
			out = append(out, *e)
		}
	}
	return out
}
