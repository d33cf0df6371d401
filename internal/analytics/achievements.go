package analytics

// Achievement is one entry of the fixed catalog scored against the full
// listening history. Unlocked achievements stay unlocked as long as the
// history that earned them does; there is no persisted unlock state.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Unlocked    bool   `json:"unlocked"`
	Progress    *int   `json:"progress,omitempty"`
	Target      *int   `json:"target,omitempty"`
}

type achievementDef struct {
	id          string
	title       string
	description string
	icon        string
	category    string
	// target > 0 means a progress achievement scored by metric; otherwise
	// unlock decides alone.
	target int
	metric func(*summary) int
	unlock func(*summary) bool
}

var achievementCatalog = []achievementDef{
	// Beginner
	{id: "first-play", title: "First Steps", description: "Play your first track", icon: "🎵", category: "Beginner",
		unlock: func(s *summary) bool { return s.totalPlays > 0 }},
	{id: "getting-started", title: "Getting Started", description: "Listen to 10 tracks", icon: "🎧", category: "Beginner",
		target: 10, metric: func(s *summary) int { return s.totalPlays }},
	{id: "music-lover", title: "Music Lover", description: "Listen to 50 tracks", icon: "❤️", category: "Beginner",
		target: 50, metric: func(s *summary) int { return s.totalPlays }},

	// Progressive
	{id: "marathon", title: "Marathon Listener", description: "Listen to 100 tracks", icon: "🏃", category: "Progressive",
		target: 100, metric: func(s *summary) int { return s.totalPlays }},
	{id: "super-fan", title: "Super Fan", description: "Listen to 500 tracks", icon: "⭐", category: "Progressive",
		target: 500, metric: func(s *summary) int { return s.totalPlays }},
	{id: "legend", title: "Legend", description: "Listen to 1000 tracks", icon: "👑", category: "Progressive",
		target: 1000, metric: func(s *summary) int { return s.totalPlays }},
	{id: "elite", title: "Elite Listener", description: "Listen to 2500 tracks", icon: "💫", category: "Progressive",
		target: 2500, metric: func(s *summary) int { return s.totalPlays }},
	{id: "master", title: "Music Master", description: "Listen to 5000 tracks", icon: "🏆", category: "Progressive",
		target: 5000, metric: func(s *summary) int { return s.totalPlays }},
	{id: "immortal", title: "Immortal", description: "Listen to 10000 tracks", icon: "♾️", category: "Progressive",
		target: 10000, metric: func(s *summary) int { return s.totalPlays }},

	// Time-based
	{id: "night-owl", title: "Night Owl", description: "Listen to music between 12 AM - 4 AM", icon: "🦉", category: "Time-based",
		unlock: func(s *summary) bool { return s.nightPlays > 0 }},
	{id: "early-bird", title: "Early Bird", description: "Listen to music between 5 AM - 7 AM", icon: "🐦", category: "Time-based",
		unlock: func(s *summary) bool { return s.earlyBirdPlays > 0 }},
	{id: "morning-person", title: "Morning Person", description: "Listen to 100 tracks in the morning (7 AM - 12 PM)", icon: "🌅", category: "Time-based",
		target: 100, metric: func(s *summary) int { return s.morningPlays }},
	{id: "afternoon-vibes", title: "Afternoon Vibes", description: "Listen to 50 tracks in the afternoon (12 PM - 6 PM)", icon: "☀️", category: "Time-based",
		target: 50, metric: func(s *summary) int { return s.afternoonPlays }},
	{id: "evening-mood", title: "Evening Mood", description: "Listen to 100 tracks in the evening (6 PM - 10 PM)", icon: "🌆", category: "Time-based",
		target: 100, metric: func(s *summary) int { return s.eveningPlays }},
	{id: "midnight-session", title: "Midnight Session", description: "Listen to 50 tracks between 10 PM - 12 AM", icon: "🌙", category: "Time-based",
		target: 50, metric: func(s *summary) int { return s.midnightPlays }},
	{id: "weekend-warrior", title: "Weekend Warrior", description: "Listen to 100 tracks on weekends", icon: "🎉", category: "Time-based",
		target: 100, metric: func(s *summary) int { return s.weekendPlays }},
	{id: "weekday-grind", title: "Weekday Grind", description: "Listen to 200 tracks on weekdays", icon: "💼", category: "Time-based",
		target: 200, metric: func(s *summary) int { return s.weekdayPlays }},

	// Streak
	{id: "three-day-streak", title: "Consistency", description: "Listen to music for 3 consecutive days", icon: "🔥", category: "Streak",
		target: 3, metric: func(s *summary) int { return s.maxStreak }},
	{id: "week-streak", title: "Week Warrior", description: "Listen to music for 7 consecutive days", icon: "🔥", category: "Streak",
		target: 7, metric: func(s *summary) int { return s.maxStreak }},
	{id: "two-week-streak", title: "Dedicated", description: "Listen to music for 14 consecutive days", icon: "🔥", category: "Streak",
		target: 14, metric: func(s *summary) int { return s.maxStreak }},
	{id: "month-streak", title: "Monthly Master", description: "Listen to music for 30 consecutive days", icon: "📅", category: "Streak",
		target: 30, metric: func(s *summary) int { return s.maxStreak }},
	{id: "quarter-streak", title: "Unstoppable", description: "Listen to music for 90 consecutive days", icon: "💪", category: "Streak",
		target: 90, metric: func(s *summary) int { return s.maxStreak }},
	{id: "half-year-streak", title: "Committed", description: "Listen to music for 180 consecutive days", icon: "🎯", category: "Streak",
		target: 180, metric: func(s *summary) int { return s.maxStreak }},
	{id: "year-streak", title: "Eternal Flame", description: "Listen to music for 365 consecutive days", icon: "🌟", category: "Streak",
		target: 365, metric: func(s *summary) int { return s.maxStreak }},

	// Discovery
	{id: "genre-explorer", title: "Genre Explorer", description: "Listen to 10 different artists", icon: "🗺️", category: "Discovery",
		target: 10, metric: func(s *summary) int { return s.uniqueArtists }},
	{id: "music-explorer", title: "Music Explorer", description: "Listen to 25 different artists", icon: "🧭", category: "Discovery",
		target: 25, metric: func(s *summary) int { return s.uniqueArtists }},
	{id: "diversity-champion", title: "Diversity Champion", description: "Listen to 50 different artists", icon: "🌍", category: "Discovery",
		target: 50, metric: func(s *summary) int { return s.uniqueArtists }},
	{id: "world-traveler", title: "World Traveler", description: "Listen to 100 different artists", icon: "✈️", category: "Discovery",
		target: 100, metric: func(s *summary) int { return s.uniqueArtists }},
	{id: "music-connoisseur", title: "Music Connoisseur", description: "Listen to 200 different artists", icon: "🎩", category: "Discovery",
		target: 200, metric: func(s *summary) int { return s.uniqueArtists }},
	{id: "track-collector", title: "Track Collector", description: "Listen to 100 unique tracks", icon: "💿", category: "Discovery",
		target: 100, metric: func(s *summary) int { return s.uniqueTracks }},
	{id: "track-hoarder", title: "Track Hoarder", description: "Listen to 500 unique tracks", icon: "📀", category: "Discovery",
		target: 500, metric: func(s *summary) int { return s.uniqueTracks }},
	{id: "track-master", title: "Track Master", description: "Listen to 1000 unique tracks", icon: "💽", category: "Discovery",
		target: 1000, metric: func(s *summary) int { return s.uniqueTracks }},

	// Loyalty
	{id: "loyal-fan", title: "Loyal Fan", description: "Play the same track 10 times", icon: "💚", category: "Loyalty",
		target: 10, metric: func(s *summary) int { return s.maxTrackPlays }},
	{id: "super-loyal", title: "Super Loyal", description: "Play the same track 25 times", icon: "💎", category: "Loyalty",
		target: 25, metric: func(s *summary) int { return s.maxTrackPlays }},
	{id: "obsessed", title: "Obsessed", description: "Play the same track 50 times", icon: "🔮", category: "Loyalty",
		target: 50, metric: func(s *summary) int { return s.maxTrackPlays }},
	{id: "anthem", title: "Personal Anthem", description: "Play the same track 100 times", icon: "🎺", category: "Loyalty",
		target: 100, metric: func(s *summary) int { return s.maxTrackPlays }},
	{id: "artist-fan", title: "Artist Fan", description: "Listen to the same artist 25 times", icon: "🎸", category: "Loyalty",
		target: 25, metric: func(s *summary) int { return s.maxArtistPlays }},
	{id: "artist-devotee", title: "Artist Devotee", description: "Listen to the same artist 50 times", icon: "🎤", category: "Loyalty",
		target: 50, metric: func(s *summary) int { return s.maxArtistPlays }},
	{id: "superfan", title: "Superfan", description: "Listen to the same artist 100 times", icon: "🌟", category: "Loyalty",
		target: 100, metric: func(s *summary) int { return s.maxArtistPlays }},
	{id: "stan", title: "Stan", description: "Listen to the same artist 250 times", icon: "👑", category: "Loyalty",
		target: 250, metric: func(s *summary) int { return s.maxArtistPlays }},

	// Special
	{id: "variety-seeker", title: "Variety Seeker", description: "No repeat artists in 20 consecutive plays", icon: "🎲", category: "Special",
		unlock: func(s *summary) bool { return s.varietyRun20 }},
	{id: "binge-listener", title: "Binge Listener", description: "Listen to 50 tracks in a single day", icon: "🍿", category: "Special",
		target: 50, metric: func(s *summary) int { return s.maxDailyPlays }},
	{id: "mega-binge", title: "Mega Binge", description: "Listen to 100 tracks in a single day", icon: "🎬", category: "Special",
		target: 100, metric: func(s *summary) int { return s.maxDailyPlays }},
	{id: "party-starter", title: "Party Starter", description: "Listen to 20 tracks in an hour", icon: "🎊", category: "Special",
		unlock: func(s *summary) bool { return s.maxHourlyPlays >= 20 }},
	{id: "speed-demon", title: "Speed Demon", description: "Listen to 30 tracks in an hour", icon: "⚡", category: "Special",
		unlock: func(s *summary) bool { return s.maxHourlyPlays >= 30 }},
	{id: "shuffle-master", title: "Shuffle Master", description: "Listen to 50 different tracks in a row", icon: "🔀", category: "Special",
		unlock: func(s *summary) bool { return s.shuffleRun50 }},
	{id: "repeat-mode", title: "Repeat Mode", description: "Play the same track 5 times in a row", icon: "🔁", category: "Special",
		unlock: func(s *summary) bool { return s.repeatRun5 }},

	// Milestone
	{id: "first-week", title: "First Week", description: "Complete your first week of listening", icon: "📆", category: "Milestone",
		unlock: func(s *summary) bool { return s.activeDays >= 7 }},
	{id: "first-month", title: "First Month", description: "Complete your first month of listening", icon: "📅", category: "Milestone",
		unlock: func(s *summary) bool { return s.activeDays >= 30 }},
	{id: "hundred-hours", title: "100 Hours", description: "Listen to 100 hours of music (≈2000 tracks)", icon: "⏰", category: "Milestone",
		target: 2000, metric: func(s *summary) int { return s.totalPlays }},
	{id: "five-hundred-hours", title: "500 Hours", description: "Listen to 500 hours of music (≈10000 tracks)", icon: "⏳", category: "Milestone",
		target: 10000, metric: func(s *summary) int { return s.totalPlays }},

	// Seasonal
	{id: "spring-vibes", title: "Spring Vibes", description: "Listen to 100 tracks in March-May", icon: "🌸", category: "Seasonal",
		target: 100, metric: func(s *summary) int { return s.springPlays }},
	{id: "summer-hits", title: "Summer Hits", description: "Listen to 100 tracks in June-August", icon: "🌞", category: "Seasonal",
		target: 100, metric: func(s *summary) int { return s.summerPlays }},
	{id: "autumn-mood", title: "Autumn Mood", description: "Listen to 100 tracks in September-November", icon: "🍂", category: "Seasonal",
		target: 100, metric: func(s *summary) int { return s.autumnPlays }},
	{id: "winter-warmth", title: "Winter Warmth", description: "Listen to 100 tracks in December-February", icon: "❄️", category: "Seasonal",
		target: 100, metric: func(s *summary) int { return s.winterPlays }},

	// Combo
	{id: "triple-threat", title: "Triple Threat", description: "Listen to music in morning, afternoon, and night in one day", icon: "🎯", category: "Combo",
		unlock: func(s *summary) bool { return s.tripleThreatDay }},
	{id: "full-spectrum", title: "Full Spectrum", description: "Listen to music every day of the week", icon: "🌈", category: "Combo",
		unlock: func(s *summary) bool { return s.distinctWeekdays == 7 }},
	{id: "balanced-listener", title: "Balanced Listener", description: "Have at least 10 plays in each time period (morning/afternoon/evening/night)", icon: "⚖️", category: "Combo",
		unlock: func(s *summary) bool {
			morning := s.morningPlays + s.earlyBirdPlays
			night := s.nightPlays + s.midnightPlays
			return morning >= 10 && s.afternoonPlays >= 10 && s.eveningPlays >= 10 && night >= 10
		}},
	{id: "explorer-loyalist", title: "Explorer & Loyalist", description: "Listen to 50 different artists AND play one track 20 times", icon: "🎭", category: "Combo",
		unlock: func(s *summary) bool { return s.uniqueArtists >= 50 && s.maxTrackPlays >= 20 }},
}

// scoreAchievements evaluates the whole catalog against a summary.
func scoreAchievements(s *summary) []Achievement {
	out := make([]Achievement, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		a := Achievement{
			ID:          def.id,
			Title:       def.title,
			Description: def.description,
			Icon:        def.icon,
			Category:    def.category,
		}
		if def.target > 0 {
			progress := def.metric(s)
			target := def.target
			a.Progress = &progress
			a.Target = &target
			a.Unlocked = progress >= target
		} else {
			a.Unlocked = def.unlock(s)
		}
		out = append(out, a)
	}
	return out
}
