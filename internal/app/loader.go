package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// LoadedDeck is the outcome of resolving a deck for play. Denied is a
// distinct, expected outcome rather than an error: the deck (with its
// price) and server-side card count are still present so callers can
// render a purchase offer.
type LoadedDeck struct {
	Deck      domain.Deck
	CardCount int
	HasAccess bool
	Playable  bool
	// BaseCards is the shuffled, capped card list a session is built
	// from. Empty when the deck is not playable.
	BaseCards []domain.Card
}

// DeckLoader resolves what the caller is allowed to play and prepares
// the bounded, shuffled card list. The deck collaborator is
// authoritative for the access decision; the loader never re-derives
// entitlement.
type DeckLoader struct {
	access           ports.DeckAccess
	plays            ports.PlayCounter
	rng              domain.RNG
	logger           *slog.Logger
	playCountTimeout time.Duration
}

func NewDeckLoader(access ports.DeckAccess, plays ports.PlayCounter, rng domain.RNG, logger *slog.Logger, playCountTimeout time.Duration) *DeckLoader {
	if playCountTimeout <= 0 {
		playCountTimeout = 5 * time.Second
	}
	return &DeckLoader{
		access:           access,
		plays:            plays,
		rng:              rng,
		logger:           logger,
		playCountTimeout: playCountTimeout,
	}
}

// Load fetches deck details in a single round trip, gates on the access
// decision, normalizes the raw cards and shuffles them into a session
// base of at most domain.MaxSessionCards entries.
func (l *DeckLoader) Load(ctx context.Context, deckID, authToken string) (LoadedDeck, error) {
	details, err := l.access.GetDeckDetails(ctx, deckID, authToken)
	if err != nil {
		return LoadedDeck{}, fmt.Errorf("get deck details: %w", err)
	}

	playable := details.Deck.IsFree || details.HasAccess

	if playable {
		// Best-effort play count. A failure here is logged and must
		// never block or fail deck loading.
		go l.countPlay(deckID)
	}

	result := LoadedDeck{
		Deck:      details.Deck,
		CardCount: details.CardCount,
		HasAccess: details.HasAccess,
		Playable:  playable,
	}

	if !playable {
		l.logger.InfoContext(ctx, "deck access denied",
			"deck_id", deckID,
			"is_free", details.Deck.IsFree,
			"price", details.Deck.Price,
		)
		return result, nil
	}

	normalized := normalizeCards(details.Cards)
	shuffled := domain.Shuffle(normalized, l.rng)
	if len(shuffled) > domain.MaxSessionCards {
		shuffled = shuffled[:domain.MaxSessionCards]
	}
	result.BaseCards = shuffled

	l.logger.InfoContext(ctx, "deck ready for play",
		"deck_id", deckID,
		"card_count", details.CardCount,
		"playable_cards", len(shuffled),
	)

	return result, nil
}

func (l *DeckLoader) countPlay(deckID string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.playCountTimeout)
	defer cancel()

	if err := l.plays.IncrementDeckPlays(ctx, deckID); err != nil {
		l.logger.Warn("unable to increment deck play count", "deck_id", deckID, "error", err)
		return
	}
	l.logger.Debug("incremented deck play count", "deck_id", deckID)
}

// normalizeCards applies defaults for possibly-absent remote fields.
// This is the only place such defaulting happens; the state machine
// never sees missing values.
func normalizeCards(records []ports.CardRecord) []domain.Card {
	cards := make([]domain.Card, len(records))
	for i, r := range records {
		c := domain.Card{
			ID:         r.ID,
			ActionType: r.ActionType,
		}
		if r.Description != nil {
			c.Description = *r.Description
		}
		if r.OrderIndex != nil {
			c.OrderIndex = *r.OrderIndex
		}
		if r.SuggesterNickname != nil {
			c.SuggesterNickname = *r.SuggesterNickname
		}
		cards[i] = c
	}
	return cards
}
