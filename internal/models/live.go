package models

// LiveStatus is the ephemeral "currently listening" snapshot. It is
// overwritten wholesale on every sync pass and keeps no history.
type LiveStatus struct {
	Friends []LiveEntry `json:"friends"`
}

type LiveEntry struct {
	Timestamp int64     `json:"timestamp"`
	User      LiveUser  `json:"user"`
	Track     LiveTrack `json:"track"`
}

type LiveUser struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type LiveTrack struct {
	URI      string      `json:"uri"`
	Name     string      `json:"name"`
	ImageURL string      `json:"imageUrl,omitempty"`
	Album    LiveRef     `json:"album"`
	Artist   LiveRef     `json:"artist"`
	Context  LiveContext `json:"context"`
}

type LiveRef struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type LiveContext struct {
	URI   string `json:"uri,omitempty"`
	Name  string `json:"name,omitempty"`
	Index int    `json:"index"`
}
