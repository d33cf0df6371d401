package models

import (
	"strconv"
	"strings"
	"time"
)

// PlayEvent is one normalized record of a track played by a tracked user.
// The JSON field names are the wire format of the stored history log and
// must not change: existing logs and archives are read back with them.
type PlayEvent struct {
	Timestamp int64  `json:"timestamp"`
	User      string `json:"user"`
	UserID    string `json:"userId"`
	Track     string `json:"track"`
	Artist    string `json:"artist"`
	URI       string `json:"uri"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Valid reports whether the event passes basic shape validation. Entries
// failing this on read are dropped silently (tolerant read, strict write).
func (e *PlayEvent) Valid() bool {
	return e.Timestamp > 0 &&
		strings.TrimSpace(e.UserID) != "" &&
		strings.TrimSpace(e.Track) != "" &&
		strings.TrimSpace(e.Artist) != "" &&
		strings.TrimSpace(e.URI) != ""
}

// Time returns the play instant.
func (e *PlayEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ArtistNames splits the comma-joined artist field into individual names.
func (e *PlayEvent) ArtistNames() []string {
	parts := strings.Split(e.Artist, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IdentityKey is the exact dedup key (userId, trackUri, timestamp).
func (e *PlayEvent) IdentityKey() string {
	return e.UserID + "|" + e.URI + "|" + strconv.FormatInt(e.Timestamp, 10)
}

// Watermark is the boundary below which events are archived and must not
// reappear in the live log. Monotonically non-decreasing.
type Watermark struct {
	LastClearTimestamp int64 `json:"lastClearTimestamp"`
}

// UserProfile is the authenticated profile of a tracked user.
type UserProfile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// RawEvent is one unprocessed item from the event source.
type RawEvent struct {
	PlayedAt  int64    `json:"playedAt"`
	Track     string   `json:"track"`
	URI       string   `json:"uri"`
	Artists   []string `json:"artists"`
	ArtistURI string   `json:"artistUri,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Album     string   `json:"album,omitempty"`
	AlbumURI  string   `json:"albumUri,omitempty"`
	Context   string   `json:"context,omitempty"`
}
