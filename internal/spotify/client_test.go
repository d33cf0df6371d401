package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"spinlog/internal/testutil"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				TokenURL: server.URL + "/api/token",
			},
		},
		apiBase: server.URL,
		client:  server.Client(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  &testutil.MockLogger{},
	}
}

func TestRefreshCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "rt-1", r.FormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	token, err := newTestClient(server).RefreshCredential(context.Background(), "rt-1")

	require.NoError(t, err)
	assert.Equal(t, "at-1", token)
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/me", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"display_name": "Alice",
			"uri": "spotify:user:alice",
			"images": [{"url": "https://img/alice.jpg"}]
		}`))
	}))
	defer server.Close()

	profile, err := newTestClient(server).FetchProfile(context.Background(), "at-1")

	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "spotify:user:alice", profile.URI)
	assert.Equal(t, "https://img/alice.jpg", profile.ImageURL)
}

func TestFetchRecentEvents(t *testing.T) {
	playedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/me/player/recently-played", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{"items": [{
			"played_at": "` + playedAt.Format(time.RFC3339) + `",
			"track": {
				"name": "Song",
				"uri": "spotify:track:1",
				"artists": [{"name": "Artist A", "uri": "spotify:artist:a"}, {"name": "Artist B", "uri": "spotify:artist:b"}],
				"album": {"name": "Album", "uri": "spotify:album:1", "images": [{"url": "https://img/cover.jpg"}]}
			},
			"context": {"uri": "spotify:playlist:p1"}
		}]}`))
	}))
	defer server.Close()

	events, err := newTestClient(server).FetchRecentEvents(context.Background(), "at-1", 1000)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, playedAt.UnixMilli(), events[0].PlayedAt)
	assert.Equal(t, "Song", events[0].Track)
	assert.Equal(t, []string{"Artist A", "Artist B"}, events[0].Artists)
	assert.Equal(t, "spotify:artist:a", events[0].ArtistURI)
	assert.Equal(t, "https://img/cover.jpg", events[0].ImageURL)
	assert.Equal(t, "spotify:playlist:p1", events[0].Context)
}

func TestFetchCurrentEvent_NothingPlaying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	event, err := newTestClient(server).FetchCurrentEvent(context.Background(), "at-1")

	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestFetchCurrentEvent_Playing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"timestamp": 1748779200000,
			"is_playing": true,
			"item": {
				"name": "Now",
				"uri": "spotify:track:now",
				"artists": [{"name": "Artist", "uri": "spotify:artist:x"}],
				"album": {"name": "Album", "uri": "spotify:album:x", "images": []}
			}
		}`))
	}))
	defer server.Close()

	event, err := newTestClient(server).FetchCurrentEvent(context.Background(), "at-1")

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, int64(1748779200000), event.PlayedAt)
	assert.Equal(t, "Now", event.Track)
}

func TestFetchProfile_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchProfile(context.Background(), "expired")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
