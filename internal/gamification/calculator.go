package gamification

import (
	"sort"
	"strings"
	"time"

	"github.com/quillnote/quillnote/internal/journal"
)

const day = 24 * time.Hour

// Calculator derives Stats from a list of entries.
type Calculator struct {
	rules Rules
}

// NewCalculator creates a calculator with the given rules.
func NewCalculator(rules Rules) *Calculator {
	if rules.PointsPerLevel <= 0 {
		rules.PointsPerLevel = DefaultRules().PointsPerLevel
	}
	return &Calculator{rules: rules}
}

// Calculate derives stats using DefaultRules.
func Calculate(entries []journal.Entry, userID string, mode Mode, asOf time.Time) Stats {
	return NewCalculator(DefaultRules()).Calculate(entries, userID, mode, asOf)
}

// DefaultStats returns the baseline for a user with no entries.
func DefaultStats(userID string, mode Mode) Stats {
	return NewCalculator(DefaultRules()).Default(userID, mode)
}

// tally holds the raw counts achievements are evaluated against.
type tally struct {
	entries       int
	words         int
	moodEntries   int
	uniqueTags    int
	currentStreak int
	longestStreak int
}

// Default returns the baseline stats: zero points, level 1, nothing unlocked.
func (c *Calculator) Default(userID string, mode Mode) Stats {
	if _, ok := ParseMode(string(mode)); !ok || mode == "" {
		mode = ModeBasic
	}
	return Stats{
		UserID:            userID,
		Level:             1,
		PointsToNextLevel: c.rules.PointsPerLevel,
		Achievements:      c.achievements(tally{}),
		Mode:              mode,
		Source:            SourceDefault,
	}
}

// Calculate derives stats from entries as of the given instant. It is pure:
// the same input always yields the same output, and missing entry fields
// contribute nothing rather than failing.
func (c *Calculator) Calculate(entries []journal.Entry, userID string, mode Mode, asOf time.Time) Stats {
	stats := c.Default(userID, mode)
	if len(entries) == 0 {
		return stats
	}

	var (
		t         tally
		points    int
		tags      = make(map[string]struct{})
		days      = make(map[time.Time]struct{})
		lastEntry time.Time
	)

	for _, e := range entries {
		t.entries++
		points += c.rules.EntryPoints

		words := e.WordCount()
		t.words += words
		if c.rules.DetailedEntryWords > 0 && words >= c.rules.DetailedEntryWords {
			points += c.rules.DetailedEntryPoints
		}

		if e.HasMood() {
			t.moodEntries++
			points += c.rules.MoodPoints
		}

		for _, tag := range e.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				tags[tag] = struct{}{}
			}
		}

		if stats.Mode == ModeAI {
			points += c.rules.AIInsightPoints
		}

		if e.CreatedAt.IsZero() {
			continue
		}
		created := e.CreatedAt.UTC()
		days[truncateDay(created)] = struct{}{}
		if created.After(lastEntry) {
			lastEntry = created
		}
	}

	t.uniqueTags = len(tags)

	longest, continuations := streakRuns(days)
	t.longestStreak = longest
	t.currentStreak = currentStreak(days, asOf)
	points += continuations * c.rules.StreakPoints

	if points < 0 {
		points = 0
	}

	stats.PointsBalance = points
	stats.TotalPointsEarned = points
	stats.Level = points/c.rules.PointsPerLevel + 1
	stats.PointsToNextLevel = c.rules.PointsPerLevel - points%c.rules.PointsPerLevel
	stats.CurrentStreak = t.currentStreak
	stats.LongestStreak = t.longestStreak
	stats.TotalEntries = t.entries
	stats.TotalWords = t.words
	stats.MoodEntries = t.moodEntries
	stats.UniqueTags = t.uniqueTags
	stats.Achievements = c.achievements(t)
	stats.Source = SourceCalculated
	if !lastEntry.IsZero() {
		stats.LastEntryAt = &lastEntry
	}

	return stats
}

func (c *Calculator) achievements(t tally) []Achievement {
	out := make([]Achievement, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, Achievement{
			ID:          def.id,
			Name:        def.name,
			Description: def.description,
			Unlocked:    def.unlocked(t, c.rules.Milestones),
		})
	}
	return out
}

// Select applies the source rule: backend stats win when they report a
// positive balance, otherwise local is computed and returned.
func Select(backend *Stats, local func() Stats) Stats {
	if backend.HasData() {
		out := *backend
		out.Source = SourceBackend
		if out.Mode == "" {
			out.Mode = ModeBasic
		}
		return out
	}
	return local()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// streakRuns returns the longest run of consecutive days and the number of
// days that continued a run from the previous day.
func streakRuns(days map[time.Time]struct{}) (longest, continuations int) {
	if len(days) == 0 {
		return 0, 0
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == day {
			run++
			continuations++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest, continuations
}

// currentStreak counts consecutive days ending today, or ending yesterday when
// nothing has been written yet today.
func currentStreak(days map[time.Time]struct{}, asOf time.Time) int {
	cursor := truncateDay(asOf.UTC())
	if _, ok := days[cursor]; !ok {
		cursor = cursor.Add(-day)
		if _, ok := days[cursor]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.Add(-day)
	}
}
