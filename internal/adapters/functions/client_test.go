package functions_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/functions"
	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetDeckDetails_Success(t *testing.T) {
	var gotReq map[string]any
	var gotAuth, gotAPIKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/get-deck-details" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)

		resp := map[string]any{
			"deck": map[string]any{
				"id":      "deck-1",
				"name":    "Icebreakers",
				"theme":   "party",
				"price":   0,
				"is_free": true,
			},
			"cards": []map[string]any{
				{"id": "c1", "description": "Prompt one.", "action_type": "truth", "order_index": 1},
				{"id": "c2", "description": nil, "action_type": "dare", "order_index": nil},
			},
			"cardCount": 2,
			"hasAccess": true,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := functions.NewClient(srv.Client(), srv.URL, "anon-key", testLogger())

	details, err := client.GetDeckDetails(context.Background(), "deck-1", "user-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq["deckId"] != "deck-1" {
		t.Errorf("request deckId: %v", gotReq["deckId"])
	}
	if gotAuth != "Bearer user-token" {
		t.Errorf("auth header: %s", gotAuth)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("apikey header: %s", gotAPIKey)
	}

	if details.Deck.Name != "Icebreakers" || !details.Deck.IsFree {
		t.Errorf("unexpected deck: %+v", details.Deck)
	}
	if !details.HasAccess || details.CardCount != 2 {
		t.Errorf("unexpected details: %+v", details)
	}
	if len(details.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(details.Cards))
	}
	if details.Cards[1].Description != nil {
		t.Errorf("null description decoded as %q", *details.Cards[1].Description)
	}
}

func TestGetDeckDetails_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Deck not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := functions.NewClient(srv.Client(), srv.URL, "", testLogger())

	_, err := client.GetDeckDetails(context.Background(), "missing", "")
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("expected ErrDeckNotFound, got %v", err)
	}
}

func TestGetDeckDetails_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := functions.NewClient(srv.Client(), srv.URL, "", testLogger())

	_, err := client.GetDeckDetails(context.Background(), "deck-1", "")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatal("server error mapped to not-found")
	}
}

func TestIncrementDeckPlays(t *testing.T) {
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/increment-deck-plays" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := functions.NewClient(srv.Client(), srv.URL, "", testLogger())

	if err := client.IncrementDeckPlays(context.Background(), "deck-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotReq["deckId"] != "deck-1" {
		t.Errorf("request deckId: %v", gotReq["deckId"])
	}
}

func TestRecordGameSession(t *testing.T) {
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/record-game-session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"stored-42"}`))
	}))
	defer srv.Close()

	client := functions.NewClient(srv.Client(), srv.URL, "", testLogger())

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := domain.SessionReport{
		DeckID:         "deck-1",
		CompletedCount: 2,
		PassedCount:    1,
		TotalCards:     3,
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
		CardPlays: []domain.CardPlay{
			{CardID: "c1", Action: domain.ActionCompleted, PlayedAt: started.Add(10 * time.Second)},
			{CardID: "c2", Action: domain.ActionCompleted, PlayedAt: started.Add(30 * time.Second)},
			{CardID: "c3", Action: domain.ActionPassed, PlayedAt: started.Add(50 * time.Second)},
		},
	}

	id, err := client.RecordGameSession(context.Background(), report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "stored-42" {
		t.Errorf("session id = %s", id)
	}

	// Anonymous sessions serialize userId as null.
	if v, present := gotReq["userId"]; !present || v != nil {
		t.Errorf("userId = %v, want explicit null", v)
	}
	plays, _ := gotReq["cardPlays"].([]any)
	if len(plays) != 3 {
		t.Fatalf("expected 3 card plays in payload, got %d", len(plays))
	}
	first, _ := plays[0].(map[string]any)
	if first["action"] != "completed" || first["cardId"] != "c1" {
		t.Errorf("unexpected first play: %v", first)
	}
	if gotReq["startedAt"] != "2025-06-01T12:00:00Z" {
		t.Errorf("startedAt = %v", gotReq["startedAt"])
	}
}
