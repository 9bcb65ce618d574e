package ports

import (
	"context"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

// CardRecord is a raw card row as returned by the deck collaborator.
// Optional columns stay pointers here; the loader applies defaults at
// the normalization boundary.
type CardRecord struct {
	ID                string  `json:"id"`
	Description       *string `json:"description"`
	ActionType        string  `json:"action_type"`
	OrderIndex        *int    `json:"order_index"`
	SuggesterNickname *string `json:"suggester_nickname"`
}

// DeckDetails is the single-round-trip answer to a deck lookup. The
// collaborator is authoritative for the access decision and returns the
// card list only when HasAccess is true.
type DeckDetails struct {
	Deck      domain.Deck
	Cards     []CardRecord
	CardCount int
	HasAccess bool
}

// DeckAccess resolves deck metadata, cards and play entitlement.
type DeckAccess interface {
	// GetDeckDetails returns domain.ErrDeckNotFound when the deck does
	// not exist. authToken may be empty for anonymous callers.
	GetDeckDetails(ctx context.Context, deckID, authToken string) (DeckDetails, error)
}

// PlayCounter records that a deck was loaded for play. Callers treat it
// as fire-and-forget; failures are logged and swallowed.
type PlayCounter interface {
	IncrementDeckPlays(ctx context.Context, deckID string) error
}
