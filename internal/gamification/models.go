// Package gamification computes journaling points, streaks and achievements.
//
// The backend owns the authoritative ledger. Calculate is used only when the
// backend has no data for a user yet, and Select decides which source wins.
package gamification

import (
	"time"
)

// Mode selects which scoring rules apply.
type Mode string

const (
	// ModeBasic scores entries, moods, detail and streaks.
	ModeBasic Mode = "basic"
	// ModeAI additionally awards ai_insights points per entry.
	ModeAI Mode = "ai"
)

// ParseMode returns the mode for s. An empty string is ModeBasic.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeBasic:
		return ModeBasic, true
	case ModeAI:
		return ModeAI, true
	default:
		return "", false
	}
}

// Source records where a Stats value came from.
type Source string

const (
	SourceBackend    Source = "backend"
	SourceCalculated Source = "calculated"
	SourceDefault    Source = "default"
	SourceMock       Source = "mock"
)

// Reason is the reason code of a points transaction.
type Reason string

const (
	ReasonEntryCreated        Reason = "entry_created"
	ReasonStreakContinued     Reason = "streak_continued"
	ReasonAIInsights          Reason = "ai_insights"
	ReasonDetailedEntry       Reason = "detailed_entry"
	ReasonMoodTracked         Reason = "mood_tracked"
	ReasonAchievementUnlocked Reason = "achievement_unlocked"
)

// Transaction is a single signed change to a user's point balance.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int       `json:"amount"`
	Reason    Reason    `json:"reason"`
	EntryID   *string   `json:"entry_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Achievement is a milestone and whether the user has reached it.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// Stats is the derived gamification summary for one user.
type Stats struct {
	UserID            string        `json:"user_id"`
	PointsBalance     int           `json:"points_balance"`
	TotalPointsEarned int           `json:"total_points_earned"`
	Level             int           `json:"level"`
	PointsToNextLevel int           `json:"points_to_next_level"`
	CurrentStreak     int           `json:"current_streak"`
	LongestStreak     int           `json:"longest_streak"`
	TotalEntries      int           `json:"total_entries"`
	TotalWords        int           `json:"total_words"`
	MoodEntries       int           `json:"mood_entries"`
	UniqueTags        int           `json:"unique_tags"`
	Achievements      []Achievement `json:"achievements"`
	LastEntryAt       *time.Time    `json:"last_entry_at,omitempty"`
	Mode              Mode          `json:"mode"`
	Source            Source        `json:"source"`
}

// HasData reports whether the stats carry a positive balance. A legitimately
// zero backend balance is indistinguishable from an empty one.
func (s *Stats) HasData() bool {
	return s != nil && s.PointsBalance > 0
}
