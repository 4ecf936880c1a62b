// Package fixtures holds the static payloads served by mock-eligible endpoints
// when the backend cannot be used. The data is identical for every failure.
package fixtures

import (
	"time"

	"github.com/quillnote/quillnote/internal/gamification"
)

// Prompt is a journaling prompt.
type Prompt struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	IsDaily   bool      `json:"is_daily"`
	CreatedAt time.Time `json:"created_at"`
}

// Fixtures is the set of fallback payloads injected into handlers.
type Fixtures struct {
	Transactions []gamification.Transaction
	DailyPrompt  Prompt
}

// TransactionsPage returns the first limit transactions in their original order.
// A non-positive limit returns all of them. The returned slice is a copy.
func (f Fixtures) TransactionsPage(limit int) []gamification.Transaction {
	n := len(f.Transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]gamification.Transaction, n)
	copy(out, f.Transactions[:n])
	return out
}

// Default returns the fixtures shipped with the service.
func Default() Fixtures {
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	entryID := func(s string) *string { return &s }

	return Fixtures{
		Transactions: []gamification.Transaction{
			{
				ID:        "txn_mock_001",
				UserID:    "mock-user",
				Amount:    10,
				Reason:    gamification.ReasonEntryCreated,
				EntryID:   entryID("entry_mock_001"),
				CreatedAt: base,
			},
			{
				ID:        "txn_mock_002",
				UserID:    "mock-user",
				Amount:    5,
				Reason:    gamification.ReasonStreakContinued,
				CreatedAt: base.Add(24 * time.Hour),
			},
			{
				ID:        "txn_mock_003",
				UserID:    "mock-user",
				Amount:    10,
				Reason:    gamification.ReasonEntryCreated,
				EntryID:   entryID("entry_mock_002"),
				CreatedAt: base.Add(24*time.Hour + time.Minute),
			},
			{
				ID:        "txn_mock_004",
				UserID:    "mock-user",
				Amount:    3,
				Reason:    gamification.ReasonAIInsights,
				EntryID:   entryID("entry_mock_002"),
				CreatedAt: base.Add(24*time.Hour + 2*time.Minute),
			},
			{
				ID:        "txn_mock_005",
				UserID:    "mock-user",
				Amount:    2,
				Reason:    gamification.ReasonMoodTracked,
				EntryID:   entryID("entry_mock_002"),
				CreatedAt: base.Add(24*time.Hour + 3*time.Minute),
			},
		},
		DailyPrompt: Prompt{
			ID:        "prompt_mock_daily",
			Text:      "What is one small thing that went well today, and why did it matter to you?",
			Category:  "gratitude",
			IsDaily:   true,
			CreatedAt: base,
		},
	}
}
