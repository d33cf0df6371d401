package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"spinlog/internal/models"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

// Record is the row shape of the secondary store. Column names are fixed by
// the existing table schema.
type Record struct {
	Timestamp int64  `json:"timestamp"`
	UserName  string `json:"user_name"`
	UserID    string `json:"user_id"`
	Track     string `json:"track"`
	Artist    string `json:"artist"`
	URI       string `json:"uri"`
	ImageURL  string `json:"image_url,omitempty"`
}

type QueryOptions struct {
	Limit  int
	Offset int
	Search string
}

// Client is a thin PostgREST client for the durable secondary copy of
// archived events. Writes are idempotent: duplicate rows are ignored server
// side, so re-forwarding a batch after a partial failure is safe.
type Client struct {
	baseURL string
	anonKey string
	table   string
	client  *http.Client
	logger  providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(conf.Supabase.URL, "/"),
		anonKey: conf.Supabase.AnonKey,
		table:   conf.Supabase.Table,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func RecordFromEvent(e models.PlayEvent) Record {
	return Record{
		Timestamp: e.Timestamp,
		UserName:  e.User,
		UserID:    e.UserID,
		Track:     e.Track,
		Artist:    e.Artist,
		URI:       e.URI,
		ImageURL:  e.ImageURL,
	}
}

func (r Record) ToEvent() models.PlayEvent {
	return models.PlayEvent{
		Timestamp: r.Timestamp,
		User:      r.UserName,
		UserID:    r.UserID,
		Track:     r.Track,
		Artist:    r.Artist,
		URI:       r.URI,
		ImageURL:  r.ImageURL,
	}
}

// InsertRecords uploads a batch of events. Rows already present (same
// primary key) are skipped, not rejected.
func (c *Client) InsertRecords(ctx context.Context, events []models.PlayEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]Record, 0, len(events))
	for _, e := range events {
		records = append(records, RecordFromEvent(e))
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=ignore-duplicates")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("insert %d records: status %d: %s", len(records), resp.StatusCode, body)
	}
	c.logger.Debugf(providers.TypeStore, "forwarded %d records to secondary store", len(records))
	return nil
}

// QueryRecords pages through stored events newest first. Search matches
// track, artist or user name case-insensitively. The second return value is
// the total row count for the filter, taken from the Content-Range header.
func (c *Client) QueryRecords(ctx context.Context, opts QueryOptions) ([]Record, int, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "timestamp.desc")
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Search != "" {
		pattern := "*" + escapeSearch(opts.Search) + "*"
		params.Set("or", fmt.Sprintf("(track.ilike.%s,artist.ilike.%s,user_name.ilike.%s)", pattern, pattern, pattern))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, 0, fmt.Errorf("query records: status %d: %s", resp.StatusCode, body)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, 0, fmt.Errorf("query records: %w", err)
	}
	return records, parseTotal(resp.Header.Get("Content-Range"), len(records)), nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/rest/v1/" + c.table
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
}

// escapeSearch strips PostgREST filter metacharacters from user input.
func escapeSearch(s string) string {
	return strings.NewReplacer(",", " ", "(", " ", ")", " ", "*", " ").Replace(s)
}

// parseTotal extracts the total from a "0-24/3573" Content-Range value.
func parseTotal(contentRange string, fallback int) int {
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return fallback
	}
	total, err := strconv.Atoi(contentRange[idx+1:])
	if err != nil {
		return fallback
	}
	return total
}
