package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/app"
	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

type fakeDeckAccess struct {
	details ports.DeckDetails
	err     error

	gotDeckID string
	gotToken  string
}

func (f *fakeDeckAccess) GetDeckDetails(_ context.Context, deckID, authToken string) (ports.DeckDetails, error) {
	f.gotDeckID = deckID
	f.gotToken = authToken
	return f.details, f.err
}

type fakePlayCounter struct {
	calls  atomic.Int64
	err    error
	called chan string
}

func newFakePlayCounter(err error) *fakePlayCounter {
	return &fakePlayCounter{err: err, called: make(chan string, 4)}
}

func (f *fakePlayCounter) IncrementDeckPlays(_ context.Context, deckID string) error {
	f.calls.Add(1)
	f.called <- deckID
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func freeDeckDetails(cardCount int) ports.DeckDetails {
	records := make([]ports.CardRecord, cardCount)
	for i := range cardCount {
		records[i] = ports.CardRecord{
			ID:          fmt.Sprintf("card-%03d", i),
			Description: strPtr("Prompt."),
			ActionType:  "truth",
			OrderIndex:  intPtr(i),
		}
	}
	return ports.DeckDetails{
		Deck: domain.Deck{
			ID:        "deck-1",
			Name:      "Icebreakers",
			Theme:     "party",
			IsFree:    true,
			CardCount: cardCount,
		},
		Cards:     records,
		CardCount: cardCount,
		HasAccess: true,
	}
}

func TestLoad_FreeDeck(t *testing.T) {
	access := &fakeDeckAccess{details: freeDeckDetails(3)}
	counter := newFakePlayCounter(nil)
	loader := app.NewDeckLoader(access, counter, stdRNG{}, discardLogger(), time.Second)

	result, err := loader.Load(context.Background(), "deck-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Playable {
		t.Fatal("free deck not playable")
	}
	if len(result.BaseCards) != 3 {
		t.Fatalf("expected 3 base cards, got %d", len(result.BaseCards))
	}
	for _, c := range result.BaseCards {
		if c.IsEndCard {
			t.Error("loader emitted an end card; the session appends it")
		}
	}

	select {
	case deckID := <-counter.called:
		if deckID != "deck-1" {
			t.Errorf("play counted for deck %s", deckID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("play count was never incremented")
	}
}

func TestLoad_CapsAtFiftyCards(t *testing.T) {
	access := &fakeDeckAccess{details: freeDeckDetails(80)}
	counter := newFakePlayCounter(nil)
	loader := app.NewDeckLoader(access, counter, stdRNG{}, discardLogger(), time.Second)

	result, err := loader.Load(context.Background(), "deck-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.BaseCards) != domain.MaxSessionCards {
		t.Fatalf("expected %d base cards, got %d", domain.MaxSessionCards, len(result.BaseCards))
	}
	if result.CardCount != 80 {
		t.Errorf("card count = %d, want the server-side total 80", result.CardCount)
	}

	// All sampled cards come from the source deck, no duplicates.
	seen := make(map[string]bool)
	for _, c := range result.BaseCards {
		if seen[c.ID] {
			t.Errorf("duplicate card %s in base list", c.ID)
		}
		seen[c.ID] = true
	}
	<-counter.called
}

func TestLoad_NormalizesMissingFields(t *testing.T) {
	details := freeDeckDetails(0)
	details.Cards = []ports.CardRecord{
		{ID: "bare", ActionType: "dare"},
	}
	details.CardCount = 1
	access := &fakeDeckAccess{details: details}
	counter := newFakePlayCounter(nil)
	loader := app.NewDeckLoader(access, counter, stdRNG{}, discardLogger(), time.Second)

	result, err := loader.Load(context.Background(), "deck-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.BaseCards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(result.BaseCards))
	}

	card := result.BaseCards[0]
	if card.Description != "" {
		t.Errorf("description = %q, want empty default", card.Description)
	}
	if card.OrderIndex != 0 {
		t.Errorf("order index = %d, want 0 default", card.OrderIndex)
	}
	if card.SuggesterNickname != "" {
		t.Errorf("nickname = %q, want empty default", card.SuggesterNickname)
	}
	<-counter.called
}

func TestLoad_PremiumWithoutAccess(t *testing.T) {
	access := &fakeDeckAccess{details: ports.DeckDetails{
		Deck: domain.Deck{
			ID:     "deck-2",
			Name:   "Premium Pack",
			IsFree: false,
			Price:  4.99,
		},
		CardCount: 40,
		HasAccess: false,
	}}
	counter := newFakePlayCounter(nil)
	loader := app.NewDeckLoader(access, counter, stdRNG{}, discardLogger(), time.Second)

	result, err := loader.Load(context.Background(), "deck-2", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Playable {
		t.Fatal("premium deck without purchase must not be playable")
	}
	if result.Deck.Price != 4.99 {
		t.Errorf("denied result price = %v, want 4.99", result.Deck.Price)
	}
	if result.CardCount != 40 {
		t.Errorf("denied result card count = %d, want 40", result.CardCount)
	}
	if len(result.BaseCards) != 0 {
		t.Errorf("denied result carries %d cards", len(result.BaseCards))
	}
	if got := counter.calls.Load(); got != 0 {
		t.Errorf("play counter called %d times for an unplayable deck", got)
	}
}

func TestLoad_DeckNotFound(t *testing.T) {
	access := &fakeDeckAccess{err: domain.ErrDeckNotFound}
	loader := app.NewDeckLoader(access, newFakePlayCounter(nil), stdRNG{}, discardLogger(), time.Second)

	_, err := loader.Load(context.Background(), "missing", "")
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
}

func TestLoad_PlayCountFailureDoesNotBlock(t *testing.T) {
	access := &fakeDeckAccess{details: freeDeckDetails(2)}
	counter := newFakePlayCounter(errors.New("backend down"))
	loader := app.NewDeckLoader(access, counter, stdRNG{}, discardLogger(), time.Second)

	result, err := loader.Load(context.Background(), "deck-1", "token-abc")
	if err != nil {
		t.Fatalf("play count failure surfaced as a load error: %v", err)
	}
	if !result.Playable || len(result.BaseCards) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if access.gotToken != "token-abc" {
		t.Errorf("auth token not forwarded: %q", access.gotToken)
	}
	<-counter.called
}
