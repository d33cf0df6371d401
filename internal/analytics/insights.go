package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"spinlog/internal/models"
)

// Insights is the derived profile of the whole listening history.
type Insights struct {
	TotalPlays       int        `json:"totalPlays"`
	UniqueTracks     int        `json:"uniqueTracks"`
	UniqueArtists    int        `json:"uniqueArtists"`
	TopArtist        TopArtist  `json:"topArtist"`
	TopTrack         TopTrack   `json:"topTrack"`
	FavoriteTime     string     `json:"favoriteTime"`
	ListeningStreak  int        `json:"listeningStreak"`
	DiscoveryScore   int        `json:"discoveryScore"`
	MusicPersonality string     `json:"musicPersonality"`
	AvgPlaysPerDay   int        `json:"avgPlaysPerDay"`
	HourlyPlays      []int      `json:"hourlyPlays"`
	DailyPlays       []DayPlays `json:"dailyPlays"`
}

type TopArtist struct {
	Name  string `json:"name"`
	Plays int    `json:"plays"`
}

type TopTrack struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Plays  int    `json:"plays"`
}

type DayPlays struct {
	Date  string `json:"date"`
	Plays int    `json:"plays"`
}

// computeInsights derives the profile. Unlike the catalogs, artist counting
// here splits joined multi-artist credits into individual names.
func computeInsights(events []models.PlayEvent, zone *time.Location) *Insights {
	if len(events) == 0 {
		return &Insights{
			TopArtist:        TopArtist{Name: "N/A"},
			TopTrack:         TopTrack{Name: "N/A", Artist: "N/A"},
			FavoriteTime:     "N/A",
			MusicPersonality: "New Listener",
			HourlyPlays:      make([]int, 24),
			DailyPlays:       []DayPlays{},
		}
	}

	totalPlays := len(events)
	tracks := make(map[string]int)
	trackLabels := make(map[string]int)
	artistNames := make(map[string]int)
	hourly := make([]int, 24)
	days := make(map[string]int)

	for i := range events {
		e := &events[i]
		at := e.Time().In(zone)

		tracks[e.URI]++
		trackLabels[e.Track+"|||"+e.Artist]++
		for _, name := range e.ArtistNames() {
			artistNames[name]++
		}
		hourly[at.Hour()]++
		days[at.Format("2006-01-02")]++
	}

	top := TopArtist{}
	for name, plays := range artistNames {
		if plays > top.Plays || (plays == top.Plays && name < top.Name) {
			top = TopArtist{Name: name, Plays: plays}
		}
	}

	topTrack := TopTrack{}
	for label, plays := range trackLabels {
		if plays > topTrack.Plays || (plays == topTrack.Plays && label < topTrack.Name+"|||"+topTrack.Artist) {
			name, artist := splitLabel(label)
			topTrack = TopTrack{Name: name, Artist: artist, Plays: plays}
		}
	}

	favoriteHour := 0
	for h := 1; h < 24; h++ {
		if hourly[h] > hourly[favoriteHour] {
			favoriteHour = h
		}
	}

	uniqueTracks := len(tracks)
	discoveryScore := int(math.Round(float64(uniqueTracks) / float64(totalPlays) * 100))

	personality := "Casual Listener"
	switch {
	case discoveryScore > 80:
		personality = "Explorer"
	case discoveryScore < 30:
		personality = "Loyalist"
	case totalPlays > 100:
		personality = "Enthusiast"
	}

	daily := make([]DayPlays, 0, len(days))
	for day, plays := range days {
		daily = append(daily, DayPlays{Date: day, Plays: plays})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	return &Insights{
		TotalPlays:       totalPlays,
		UniqueTracks:     uniqueTracks,
		UniqueArtists:    len(artistNames),
		TopArtist:        top,
		TopTrack:         topTrack,
		FavoriteTime:     fmt.Sprintf("%02d:00 - %02d:00", favoriteHour, (favoriteHour+1)%24),
		ListeningStreak:  maxStreak(days),
		DiscoveryScore:   discoveryScore,
		MusicPersonality: personality,
		AvgPlaysPerDay:   int(math.Round(float64(totalPlays) / float64(len(days)))),
		HourlyPlays:      hourly,
		DailyPlays:       daily,
	}
}

func splitLabel(label string) (track, artist string) {
	parts := strings.SplitN(label, "|||", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return label, ""
}
