package analytics

import (
	"sort"
	"time"

	"spinlog/internal/models"
)

// summary holds every aggregate the catalogs are scored against. It is
// computed in one pass over the full event set (current log plus archives)
// so each endpoint request walks the history once. All calendar bucketing
// uses the configured reference zone, never the host timezone.
type summary struct {
	totalPlays    int
	uniqueTracks  int
	uniqueArtists int

	nightPlays     int // 00:00-04:00
	earlyBirdPlays int // 05:00-07:00
	morningPlays   int // 07:00-12:00
	afternoonPlays int // 12:00-18:00
	eveningPlays   int // 18:00-22:00
	midnightPlays  int // 22:00-24:00

	weekendPlays int
	weekdayPlays int

	springPlays int
	summerPlays int
	autumnPlays int
	winterPlays int

	activeDays int
	maxStreak  int

	maxTrackPlays  int
	maxArtistPlays int
	maxDailyPlays  int
	maxHourlyPlays int

	distinctWeekdays int
	tripleThreatDay  bool
	varietyRun20     bool
	shuffleRun50     bool
	repeatRun5       bool
}

func summarize(events []models.PlayEvent, zone *time.Location) *summary {
	s := &summary{totalPlays: len(events)}
	if len(events) == 0 {
		return s
	}

	tracks := make(map[string]int)
	artists := make(map[string]int)
	days := make(map[string]int)
	hours := make(map[string]int)
	weekdays := make(map[time.Weekday]struct{})
	dayPeriods := make(map[string]map[string]struct{})

	for i := range events {
		e := &events[i]
		at := e.Time().In(zone)
		hour := at.Hour()
		day := at.Format("2006-01-02")

		switch {
		case hour < 4:
			s.nightPlays++
		case hour >= 5 && hour < 7:
			s.earlyBirdPlays++
		case hour >= 7 && hour < 12:
			s.morningPlays++
		case hour >= 12 && hour < 18:
			s.afternoonPlays++
		case hour >= 18 && hour < 22:
			s.eveningPlays++
		case hour >= 22:
			s.midnightPlays++
		}

		switch at.Weekday() {
		case time.Saturday, time.Sunday:
			s.weekendPlays++
		default:
			s.weekdayPlays++
		}
		weekdays[at.Weekday()] = struct{}{}

		switch at.Month() {
		case time.March, time.April, time.May:
			s.springPlays++
		case time.June, time.July, time.August:
			s.summerPlays++
		case time.September, time.October, time.November:
			s.autumnPlays++
		default:
			s.winterPlays++
		}

		tracks[e.URI]++
		artists[e.Artist]++
		days[day]++
		hours[day+"|"+at.Format("15")]++

		period := dayPeriods[day]
		if period == nil {
			period = make(map[string]struct{})
			dayPeriods[day] = period
		}
		switch {
		case hour >= 5 && hour < 12:
			period["morning"] = struct{}{}
		case hour >= 12 && hour < 18:
			period["afternoon"] = struct{}{}
		default:
			period["night"] = struct{}{}
		}
	}

	s.uniqueTracks = len(tracks)
	s.uniqueArtists = len(artists)
	s.activeDays = len(days)
	s.maxTrackPlays = maxCount(tracks)
	s.maxArtistPlays = maxCount(artists)
	s.maxDailyPlays = maxCount(days)
	s.maxHourlyPlays = maxCount(hours)
	s.distinctWeekdays = len(weekdays)
	s.maxStreak = maxStreak(days)

	for _, periods := range dayPeriods {
		if len(periods) >= 3 {
			s.tripleThreatDay = true
			break
		}
	}

	s.varietyRun20 = distinctRun(events, 20, func(e *models.PlayEvent) string { return e.Artist })
	s.shuffleRun50 = distinctRun(events, 50, func(e *models.PlayEvent) string { return e.URI })
	s.repeatRun5 = sameTrackRun(events, 5)

	return s
}

func maxCount[K comparable](counts map[K]int) int {
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	return max
}

// maxStreak is the longest run of consecutive active days.
func maxStreak(days map[string]int) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 24*time.Hour {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}

// distinctRun reports whether the n most recent plays all have distinct keys.
// Events are ordered newest first.
func distinctRun(events []models.PlayEvent, n int, key func(*models.PlayEvent) string) bool {
	if len(events) < n {
		return false
	}
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		seen[key(&events[i])] = struct{}{}
	}
	return len(seen) == n
}

// sameTrackRun reports whether any n consecutive plays are the same track.
func sameTrackRun(events []models.PlayEvent, n int) bool {
	run := 1
	for i := 1; i < len(events); i++ {
		if events[i].URI == events[i-1].URI {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
