package gamification

// Rules are the product-defined scoring constants.
type Rules struct {
	EntryPoints         int
	DetailedEntryPoints int
	DetailedEntryWords  int
	MoodPoints          int
	StreakPoints        int
	AIInsightPoints     int
	PointsPerLevel      int
	Milestones          Milestones
}

// Milestones are the thresholds at which achievements unlock.
type Milestones struct {
	WeekStreak     int
	MonthStreak    int
	ProlificWriter int
	Wordsmith      int
	MoodTracker    int
	TagExplorer    int
}

// DefaultRules returns the scoring used by the app.
func DefaultRules() Rules {
	return Rules{
		EntryPoints:         10,
		DetailedEntryPoints: 5,
		DetailedEntryWords:  200,
		MoodPoints:          2,
		StreakPoints:        5,
		AIInsightPoints:     3,
		PointsPerLevel:      100,
		Milestones: Milestones{
			WeekStreak:     7,
			MonthStreak:    30,
			ProlificWriter: 50,
			Wordsmith:      10000,
			MoodTracker:    10,
			TagExplorer:    10,
		},
	}
}

// Achievement ids.
const (
	AchievementFirstEntry     = "first_entry"
	AchievementWeekStreak     = "week_streak"
	AchievementMonthStreak    = "month_streak"
	AchievementProlificWriter = "prolific_writer"
	AchievementWordsmith      = "wordsmith"
	AchievementMoodTracker    = "mood_tracker"
	AchievementTagExplorer    = "tag_explorer"
)

type achievementDef struct {
	id          string
	name        string
	description string
	unlocked    func(t tally, m Milestones) bool
}

// catalog is ordered; Stats.Achievements keeps this order.
var catalog = []achievementDef{
	{
		id:          AchievementFirstEntry,
		name:        "First Words",
		description: "Write your first journal entry",
		unlocked:    func(t tally, _ Milestones) bool { return t.entries >= 1 },
	},
	{
		id:          AchievementWeekStreak,
		name:        "Week Warrior",
		description: "Journal seven days in a row",
		unlocked:    func(t tally, m Milestones) bool { return t.longestStreak >= m.WeekStreak },
	},
	{
		id:          AchievementMonthStreak,
		name:        "Habit Formed",
		description: "Journal thirty days in a row",
		unlocked:    func(t tally, m Milestones) bool { return t.longestStreak >= m.MonthStreak },
	},
	{
		id:          AchievementProlificWriter,
		name:        "Prolific Writer",
		description: "Write fifty journal entries",
		unlocked:    func(t tally, m Milestones) bool { return t.entries >= m.ProlificWriter },
	},
	{
		id:          AchievementWordsmith,
		name:        "Wordsmith",
		description: "Write ten thousand words",
		unlocked:    func(t tally, m Milestones) bool { return t.words >= m.Wordsmith },
	},
	{
		id:          AchievementMoodTracker,
		name:        "In Tune",
		description: "Record your mood on ten entries",
		unlocked:    func(t tally, m Milestones) bool { return t.moodEntries >= m.MoodTracker },
	},
	{
		id:          AchievementTagExplorer,
		name:        "Tag Explorer",
		description: "Use ten different tags",
		unlocked:    func(t tally, m Milestones) bool { return t.uniqueTags >= m.TagExplorer },
	},
}
