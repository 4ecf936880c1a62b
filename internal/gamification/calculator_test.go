package gamification_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnote/quillnote/internal/gamification"
	"github.com/quillnote/quillnote/internal/journal"
)

var asOf = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

func entryOn(id string, daysAgo int) journal.Entry {
	created := asOf.AddDate(0, 0, -daysAgo)
	return journal.Entry{
		ID:        id,
		Title:     "Entry " + id,
		Content:   "a short note",
		CreatedAt: journal.NewTime(created),
		UpdatedAt: journal.NewTime(created),
	}
}

func strPtr(s string) *string { return &s }

func achievement(t *testing.T, stats gamification.Stats, id string) gamification.Achievement {
	t.Helper()
	for _, a := range stats.Achievements {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("achievement %q not found", id)
	return gamification.Achievement{}
}

func TestCalculate_EmptyReturnsBaseline(t *testing.T) {
	for _, entries := range [][]journal.Entry{nil, {}} {
		stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)

		assert.Equal(t, "usr_1", stats.UserID)
		assert.Equal(t, 0, stats.PointsBalance)
		assert.Equal(t, 1, stats.Level)
		assert.Equal(t, 100, stats.PointsToNextLevel)
		assert.Equal(t, 0, stats.CurrentStreak)
		assert.Equal(t, gamification.SourceDefault, stats.Source)
		assert.Len(t, stats.Achievements, 7)
		for _, a := range stats.Achievements {
			assert.False(t, a.Unlocked, a.ID)
		}
	}
}

func TestCalculate_MatchesDefaultStats(t *testing.T) {
	assert.Equal(t,
		gamification.DefaultStats("usr_1", gamification.ModeAI),
		gamification.Calculate(nil, "usr_1", gamification.ModeAI, asOf),
	)
}

func TestCalculate_SingleEntry(t *testing.T) {
	stats := gamification.Calculate([]journal.Entry{entryOn("e1", 0)}, "usr_1", gamification.ModeBasic, asOf)

	assert.Equal(t, 10, stats.PointsBalance)
	assert.Equal(t, 10, stats.TotalPointsEarned)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 3, stats.TotalWords)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.LongestStreak)
	assert.Equal(t, gamification.SourceCalculated, stats.Source)
	require.NotNil(t, stats.LastEntryAt)
	assert.True(t, asOf.Equal(*stats.LastEntryAt))
	assert.True(t, achievement(t, stats, gamification.AchievementFirstEntry).Unlocked)
}

func TestCalculate_StreakPoints(t *testing.T) {
	// Three consecutive days ending today: two continuation days.
	entries := []journal.Entry{entryOn("e1", 2), entryOn("e2", 1), entryOn("e3", 0)}
	stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)

	assert.Equal(t, 3*10+2*5, stats.PointsBalance)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
}

func TestCalculate_SameDayEntriesCountOnce(t *testing.T) {
	entries := []journal.Entry{entryOn("e1", 0), entryOn("e2", 0)}
	stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)

	assert.Equal(t, 20, stats.PointsBalance)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestCalculate_CurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo []int
		current int
		longest int
	}{
		{"ending yesterday still counts", []int{1, 2, 3}, 3, 3},
		{"gap of two days breaks it", []int{2, 3, 4}, 0, 3},
		{"older longer run", []int{0, 1, 10, 11, 12, 13}, 2, 4},
		{"broken today run", []int{0, 2}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []journal.Entry
			for i, d := range tt.daysAgo {
				entries = append(entries, entryOn(fmt.Sprintf("e%d", i), d))
			}
			stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)
			assert.Equal(t, tt.current, stats.CurrentStreak)
			assert.Equal(t, tt.longest, stats.LongestStreak)
		})
	}
}

func TestCalculate_Bonuses(t *testing.T) {
	detailed := entryOn("e1", 0)
	detailed.Content = strings.Repeat("word ", 200)
	detailed.Mood = strPtr("grateful")

	stats := gamification.Calculate([]journal.Entry{detailed}, "usr_1", gamification.ModeBasic, asOf)
	assert.Equal(t, 10+5+2, stats.PointsBalance)
	assert.Equal(t, 1, stats.MoodEntries)

	ai := gamification.Calculate([]journal.Entry{detailed}, "usr_1", gamification.ModeAI, asOf)
	assert.Equal(t, 10+5+2+3, ai.PointsBalance)
	assert.Equal(t, gamification.ModeAI, ai.Mode)
}

func TestCalculate_MalformedEntries(t *testing.T) {
	entries := []journal.Entry{
		{},                           // everything missing
		{ID: "e2", Mood: strPtr("")}, // empty mood is not a mood
		{ID: "e3", Tags: []string{"", "  "}},
	}

	require.NotPanics(t, func() {
		stats := gamification.Calculate(entries, "", gamification.Mode("bogus"), asOf)
		assert.Equal(t, 30, stats.PointsBalance)
		assert.Equal(t, 0, stats.CurrentStreak)
		assert.Equal(t, 0, stats.LongestStreak)
		assert.Equal(t, 0, stats.MoodEntries)
		assert.Equal(t, 0, stats.UniqueTags)
		assert.Nil(t, stats.LastEntryAt)
		assert.Equal(t, gamification.ModeBasic, stats.Mode)
	})
}

func TestCalculate_Levels(t *testing.T) {
	var entries []journal.Entry
	for i := 0; i < 12; i++ {
		// Spread out so there are no streak bonuses.
		entries = append(entries, entryOn(fmt.Sprintf("e%d", i), i*2))
	}
	stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)

	assert.Equal(t, 120, stats.PointsBalance)
	assert.Equal(t, 2, stats.Level)
	assert.Equal(t, 80, stats.PointsToNextLevel)
}

func TestCalculate_Achievements(t *testing.T) {
	var entries []journal.Entry
	for i := 0; i < 50; i++ {
		e := entryOn(fmt.Sprintf("e%d", i), i)
		e.Content = strings.Repeat("word ", 200)
		e.Mood = strPtr("calm")
		e.Tags = []string{fmt.Sprintf("Tag%d", i%12), fmt.Sprintf("tag%d", i%12)}
		entries = append(entries, e)
	}

	stats := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)

	assert.Equal(t, 50, stats.CurrentStreak)
	assert.Equal(t, 12, stats.UniqueTags, "tags are case-insensitive")
	for _, id := range []string{
		gamification.AchievementFirstEntry,
		gamification.AchievementWeekStreak,
		gamification.AchievementMonthStreak,
		gamification.AchievementProlificWriter,
		gamification.AchievementWordsmith,
		gamification.AchievementMoodTracker,
		gamification.AchievementTagExplorer,
	} {
		assert.True(t, achievement(t, stats, id).Unlocked, id)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	entries := []journal.Entry{entryOn("e3", 0), entryOn("e1", 2), entryOn("e2", 1)}
	first := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)
	second := gamification.Calculate(entries, "usr_1", gamification.ModeBasic, asOf)
	assert.Equal(t, first, second)
}

func TestCalculate_BalanceNeverNegative(t *testing.T) {
	rules := gamification.DefaultRules()
	rules.EntryPoints = -50
	stats := gamification.NewCalculator(rules).Calculate([]journal.Entry{entryOn("e1", 0)}, "usr_1", gamification.ModeBasic, asOf)
	assert.GreaterOrEqual(t, stats.PointsBalance, 0)
}

func TestSelect(t *testing.T) {
	local := func() gamification.Stats {
		s := gamification.DefaultStats("usr_1", gamification.ModeBasic)
		s.Source = gamification.SourceCalculated
		return s
	}

	t.Run("positive backend balance wins", func(t *testing.T) {
		backend := &gamification.Stats{UserID: "usr_1", PointsBalance: 42}
		called := false
		got := gamification.Select(backend, func() gamification.Stats {
			called = true
			return local()
		})
		assert.Equal(t, 42, got.PointsBalance)
		assert.Equal(t, gamification.SourceBackend, got.Source)
		assert.False(t, called, "local calculation is skipped")
	})

	t.Run("zero backend balance falls back", func(t *testing.T) {
		got := gamification.Select(&gamification.Stats{PointsBalance: 0}, local)
		assert.Equal(t, gamification.SourceCalculated, got.Source)
	})

	t.Run("missing backend falls back", func(t *testing.T) {
		got := gamification.Select(nil, local)
		assert.Equal(t, gamification.SourceCalculated, got.Source)
	})
}

func TestParseMode(t *testing.T) {
	mode, ok := gamification.ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, gamification.ModeBasic, mode)

	mode, ok = gamification.ParseMode("ai")
	assert.True(t, ok)
	assert.Equal(t, gamification.ModeAI, mode)

	_, ok = gamification.ParseMode("turbo")
	assert.False(t, ok)
}
