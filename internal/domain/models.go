package domain

import "time"

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Direction is the swipe direction for a card decision.
type Direction string

const (
	SwipeLeft  Direction = "left"
	SwipeRight Direction = "right"
)

// Action is the recorded outcome of a card decision.
type Action string

const (
	ActionCompleted Action = "completed"
	ActionPassed    Action = "passed"
)

// ActionForDirection maps a swipe direction to its recorded action.
func ActionForDirection(d Direction) Action {
	if d == SwipeRight {
		return ActionCompleted
	}
	return ActionPassed
}

// Card is a single prompt in a deck.
type Card struct {
	ID                string `json:"id"`
	Description       string `json:"description"`
	ActionType        string `json:"action_type"`
	OrderIndex        int    `json:"order_index"`
	SuggesterNickname string `json:"suggester_nickname,omitempty"`
	IsEndCard         bool   `json:"is_end_card"`
}

// endCardOrderIndex sorts the terminal card after every real card.
const endCardOrderIndex = 9999

// NewEndCard synthesizes the terminal card closing a session. It is
// created locally and never persisted.
func NewEndCard(deckID string) Card {
	return Card{
		ID:         "end-card-" + deckID,
		ActionType: "end",
		OrderIndex: endCardOrderIndex,
		IsEndCard:  true,
	}
}

// Deck is the named collection a session is drawn from.
type Deck struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Theme        string  `json:"theme"`
	IsFree       bool    `json:"is_free"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	CardCount    int     `json:"card_count"`
}

// CardPlay is one entry in a session's decision log.
type CardPlay struct {
	CardID   string    `json:"cardId"`
	Action   Action    `json:"action"`
	PlayedAt time.Time `json:"playedAt"`
}

// HistoryEntry records a swipe so it can be undone.
type HistoryEntry struct {
	Position  int
	Direction Direction
}

// SessionReport is the summary submitted when a session reaches the
// terminal card. UserID is empty for anonymous play.
type SessionReport struct {
	DeckID         string     `json:"deckId"`
	UserID         string     `json:"userId,omitempty"`
	CompletedCount int        `json:"completedCount"`
	PassedCount    int        `json:"passedCount"`
	TotalCards     int        `json:"totalCards"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     time.Time  `json:"finishedAt"`
	CardPlays      []CardPlay `json:"cardPlays"`
}
