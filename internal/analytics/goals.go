package analytics

import (
	"time"

	"spinlog/internal/models"
)

// Goal is one recurring target scored against the current period only.
// Progress is recomputed from the period's events on every request, so a
// rolled-over period shows as a fresh goal with ResetDate at the period
// start.
type Goal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
	Completed   bool   `json:"completed"`
	ResetDate   string `json:"resetDate"`
}

type goalDef struct {
	id          string
	title       string
	description string
	icon        string
	period      string // daily, weekly, monthly
	target      int
	metric      func(*goalInput) int
}

// goalInput carries the period-filtered event sets a goal can score.
type goalInput struct {
	period    []models.PlayEvent
	prevMonth []models.PlayEvent
	zone      *time.Location
}

var goalCatalog = []goalDef{
	// Daily
	{id: "daily-tracks", title: "Daily Listener", description: "Listen to 10 tracks today", icon: "🎵", period: "daily", target: 10,
		metric: func(in *goalInput) int { return len(in.period) }},
	{id: "daily-artists", title: "Artist Explorer", description: "Listen to 5 different artists today", icon: "🎨", period: "daily", target: 5,
		metric: func(in *goalInput) int { return distinctArtists(in.period) }},
	{id: "daily-unique", title: "Variety Today", description: "Listen to 8 unique tracks today", icon: "🎲", period: "daily", target: 8,
		metric: func(in *goalInput) int { return distinctTracks(in.period) }},
	{id: "daily-morning", title: "Morning Routine", description: "Listen to 3 tracks before noon", icon: "🌅", period: "daily", target: 3,
		metric: func(in *goalInput) int {
			return countIf(in.period, func(at time.Time) bool { return at.Hour() < 12 }, in.zone)
		}},
	{id: "daily-evening", title: "Evening Unwind", description: "Listen to 5 tracks after 6 PM", icon: "🌆", period: "daily", target: 5,
		metric: func(in *goalInput) int {
			return countIf(in.period, func(at time.Time) bool { return at.Hour() >= 18 }, in.zone)
		}},

	// Weekly
	{id: "weekly-tracks", title: "Weekly Warrior", description: "Listen to 50 tracks this week", icon: "🎧", period: "weekly", target: 50,
		metric: func(in *goalInput) int { return len(in.period) }},
	{id: "weekly-artists", title: "Artist Discovery", description: "Listen to 15 different artists this week", icon: "🗺️", period: "weekly", target: 15,
		metric: func(in *goalInput) int { return distinctArtists(in.period) }},
	{id: "weekly-streak", title: "Consistency", description: "Listen to music every day this week", icon: "🔥", period: "weekly", target: 7,
		metric: func(in *goalInput) int { return activeDays(in.period, in.zone) }},
	{id: "weekly-unique", title: "Track Variety", description: "Listen to 30 unique tracks this week", icon: "💿", period: "weekly", target: 30,
		metric: func(in *goalInput) int { return distinctTracks(in.period) }},
	{id: "weekly-weekend", title: "Weekend Vibes", description: "Listen to 20 tracks on the weekend", icon: "🎉", period: "weekly", target: 20,
		metric: func(in *goalInput) int {
			return countIf(in.period, func(at time.Time) bool {
				return at.Weekday() == time.Saturday || at.Weekday() == time.Sunday
			}, in.zone)
		}},
	{id: "weekly-favorite", title: "Loyal Fan", description: "Play your favorite artist 10 times this week", icon: "💚", period: "weekly", target: 10,
		metric: func(in *goalInput) int { return maxArtistCount(in.period) }},

	// Monthly
	{id: "monthly-tracks", title: "Monthly Master", description: "Listen to 200 tracks this month", icon: "🏆", period: "monthly", target: 200,
		metric: func(in *goalInput) int { return len(in.period) }},
	{id: "monthly-artists", title: "Genre Explorer", description: "Listen to 40 different artists this month", icon: "🌍", period: "monthly", target: 40,
		metric: func(in *goalInput) int { return distinctArtists(in.period) }},
	{id: "monthly-unique", title: "Track Collector", description: "Listen to 100 unique tracks this month", icon: "📀", period: "monthly", target: 100,
		metric: func(in *goalInput) int { return distinctTracks(in.period) }},
	{id: "monthly-streak", title: "Dedication", description: "Listen to music for 20 days this month", icon: "📅", period: "monthly", target: 20,
		metric: func(in *goalInput) int { return activeDays(in.period, in.zone) }},
	{id: "monthly-hours", title: "Time Investment", description: "Listen to 10 hours of music (≈200 tracks)", icon: "⏰", period: "monthly", target: 200,
		metric: func(in *goalInput) int { return len(in.period) }},
	{id: "monthly-discovery", title: "New Discoveries", description: "Listen to 20 artists you haven't heard before", icon: "🔍", period: "monthly", target: 20,
		metric: func(in *goalInput) int { return newArtists(in.period, in.prevMonth) }},
	{id: "monthly-variety", title: "Diverse Taste", description: "Listen to music in all time periods (morning/afternoon/evening/night)", icon: "🌈", period: "monthly", target: 4,
		metric: func(in *goalInput) int { return distinctDayParts(in.period, in.zone) }},
	{id: "monthly-binge", title: "Power Listener", description: "Have at least one day with 30+ tracks", icon: "🍿", period: "monthly", target: 30,
		metric: func(in *goalInput) int { return maxDailyCount(in.period, in.zone) }},
}

// periodStart returns the start of the current day, ISO week (Monday) or
// calendar month in the reference zone.
func periodStart(now time.Time, period string, zone *time.Location) time.Time {
	local := now.In(zone)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
	switch period {
	case "weekly":
		offset := int(day.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, zone)
	default:
		return day
	}
}

// scoreGoals evaluates the catalog at a given instant. Events must span the
// whole history; each goal sees only its own period.
func scoreGoals(events []models.PlayEvent, now time.Time, zone *time.Location) []Goal {
	starts := map[string]time.Time{
		"daily":   periodStart(now, "daily", zone),
		"weekly":  periodStart(now, "weekly", zone),
		"monthly": periodStart(now, "monthly", zone),
	}
	monthStart := starts["monthly"]
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	inputs := make(map[string]*goalInput, len(starts))
	for period, start := range starts {
		inputs[period] = &goalInput{
			period:    eventsSince(events, start),
			prevMonth: eventsBetween(events, prevMonthStart, monthStart),
			zone:      zone,
		}
	}

	out := make([]Goal, 0, len(goalCatalog))
	for _, def := range goalCatalog {
		progress := def.metric(inputs[def.period])
		completed := progress >= def.target
		if progress > def.target {
			progress = def.target
		}
		out = append(out, Goal{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
			Icon:        def.icon,
			Type:        def.period,
			Category:    categoryFor(def.period),
			Progress:    progress,
			Target:      def.target,
			Completed:   completed,
			ResetDate:   starts[def.period].Format(time.RFC3339),
		})
	}
	return out
}

func categoryFor(period string) string {
	switch period {
	case "weekly":
		return "Weekly"
	case "monthly":
		return "Monthly"
	default:
		return "Daily"
	}
}

func eventsSince(events []models.PlayEvent, start time.Time) []models.PlayEvent {
	out := make([]models.PlayEvent, 0, len(events))
	for i := range events {
		if !events[i].Time().Before(start) {
			out = append(out, events[i])
		}
	}
	return out
}

func eventsBetween(events []models.PlayEvent, start, end time.Time) []models.PlayEvent {
	out := make([]models.PlayEvent, 0)
	for i := range events {
		at := events[i].Time()
		if !at.Before(start) && at.Before(end) {
			out = append(out, events[i])
		}
	}
	return out
}

func distinctArtists(events []models.PlayEvent) int {
	seen := make(map[string]struct{})
	for i := range events {
		seen[events[i].Artist] = struct{}{}
	}
	return len(seen)
}

func distinctTracks(events []models.PlayEvent) int {
	seen := make(map[string]struct{})
	for i := range events {
		seen[events[i].URI] = struct{}{}
	}
	return len(seen)
}

func countIf(events []models.PlayEvent, pred func(time.Time) bool, zone *time.Location) int {
	n := 0
	for i := range events {
		if pred(events[i].Time().In(zone)) {
			n++
		}
	}
	return n
}

func activeDays(events []models.PlayEvent, zone *time.Location) int {
	days := make(map[string]struct{})
	for i := range events {
		days[events[i].Time().In(zone).Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

func maxArtistCount(events []models.PlayEvent) int {
	counts := make(map[string]int)
	for i := range events {
		counts[events[i].Artist]++
	}
	return maxCount(counts)
}

func maxDailyCount(events []models.PlayEvent, zone *time.Location) int {
	counts := make(map[string]int)
	for i := range events {
		counts[events[i].Time().In(zone).Format("2006-01-02")]++
	}
	return maxCount(counts)
}

func newArtists(current, previous []models.PlayEvent) int {
	before := make(map[string]struct{})
	for i := range previous {
		before[previous[i].Artist] = struct{}{}
	}
	fresh := make(map[string]struct{})
	for i := range current {
		if _, ok := before[current[i].Artist]; !ok {
			fresh[current[i].Artist] = struct{}{}
		}
	}
	return len(fresh)
}

func distinctDayParts(events []models.PlayEvent, zone *time.Location) int {
	parts := make(map[string]struct{})
	for i := range events {
		hour := events[i].Time().In(zone).Hour()
		switch {
		case hour >= 5 && hour < 12:
			parts["morning"] = struct{}{}
		case hour >= 12 && hour < 18:
			parts["afternoon"] = struct{}{}
		case hour >= 18 && hour < 22:
			parts["evening"] = struct{}{}
		default:
			parts["night"] = struct{}{}
		}
	}
	return len(parts)
}
