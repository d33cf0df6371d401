package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	oauthspotify "golang.org/x/oauth2/spotify"
	"golang.org/x/time/rate"

	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

const defaultAPIBase = "https://api.spotify.com"

// Client talks to the Spotify Web API on behalf of tracked users. Access
// tokens are short-lived and derived from per-user refresh tokens on every
// sync pass; the client itself holds no user state. A shared rate limiter
// keeps the fan-out across users below the API quota.
type Client struct {
	oauth   *oauth2.Config
	apiBase string
	client  *http.Client
	limiter *rate.Limiter
	logger  providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     conf.Spotify.ClientID,
			ClientSecret: conf.Spotify.ClientSecret,
			Endpoint:     oauthspotify.Endpoint,
		},
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		logger:  logger,
	}
}

// RefreshCredential exchanges a user's refresh token for a fresh access
// token. Failures here are per-user and must not abort the whole pass.
func (c *Client) RefreshCredential(ctx context.Context, refreshToken string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}
	return token.AccessToken, nil
}

type profileResponse struct {
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	body, status, err := c.get(ctx, accessToken, "/v1/me")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("profile: status %d", status)
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	profile := &models.UserProfile{Name: resp.DisplayName, URI: resp.URI}
	if len(resp.Images) > 0 {
		profile.ImageURL = resp.Images[0].URL
	}
	return profile, nil
}

type trackPayload struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		URI    string `json:"uri"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

type recentlyPlayedResponse struct {
	Items []struct {
		PlayedAt time.Time    `json:"played_at"`
		Track    trackPayload `json:"track"`
		Context  *struct {
			URI string `json:"uri"`
		} `json:"context"`
	} `json:"items"`
}

// FetchRecentEvents returns the plays recorded after the given cursor,
// newest first, exactly as the API orders them.
func (c *Client) FetchRecentEvents(ctx context.Context, accessToken string, afterMs int64) ([]models.RawEvent, error) {
	endpoint := "/v1/me/player/recently-played?limit=50"
	if afterMs > 0 {
		endpoint += "&after=" + url.QueryEscape(strconv.FormatInt(afterMs, 10))
	}

	body, status, err := c.get(ctx, accessToken, endpoint)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("recently played: status %d", status)
	}

	var resp recentlyPlayedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("recently played: %w", err)
	}

	events := make([]models.RawEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		raw := rawFromTrack(item.Track)
		raw.PlayedAt = item.PlayedAt.UnixMilli()
		if item.Context != nil {
			raw.Context = item.Context.URI
		}
		events = append(events, raw)
	}
	return events, nil
}

type currentlyPlayingResponse struct {
	Timestamp int64         `json:"timestamp"`
	IsPlaying bool          `json:"is_playing"`
	Item      *trackPayload `json:"item"`
	Context   *struct {
		URI string `json:"uri"`
	} `json:"context"`
}

// FetchCurrentEvent returns what the user is listening to right now, or nil
// when nothing is playing.
func (c *Client) FetchCurrentEvent(ctx context.Context, accessToken string) (*models.RawEvent, error) {
	body, status, err := c.get(ctx, accessToken, "/v1/me/player/currently-playing")
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("currently playing: status %d", status)
	}

	var resp currentlyPlayingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("currently playing: %w", err)
	}
	if !resp.IsPlaying || resp.Item == nil {
		return nil, nil
	}

	raw := rawFromTrack(*resp.Item)
	raw.PlayedAt = resp.Timestamp
	if resp.Context != nil {
		raw.Context = resp.Context.URI
	}
	return &raw, nil
}

func rawFromTrack(t trackPayload) models.RawEvent {
	raw := models.RawEvent{
		Track:    t.Name,
		URI:      t.URI,
		Album:    t.Album.Name,
		AlbumURI: t.Album.URI,
	}
	for _, a := range t.Artists {
		raw.Artists = append(raw.Artists, a.Name)
	}
	if len(t.Artists) > 0 {
		raw.ArtistURI = t.Artists[0].URI
	}
	if len(t.Album.Images) > 0 {
		raw.ImageURL = t.Album.Images[0].URL
	}
	return raw
}

func (c *Client) get(ctx context.Context, accessToken, endpoint string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warnf(providers.TypeSync, "rate limited, retry-after=%s", resp.Header.Get("Retry-After"))
	}
	return body, resp.StatusCode, nil
}
