package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// Client speaks to the hosted backend functions (get-deck-details,
// increment-deck-plays, record-game-session). It implements
// ports.DeckAccess, ports.PlayCounter and ports.SessionStore.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type deckDetailsRequest struct {
	DeckID string `json:"deckId"`
}

type deckPayload struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Theme        string  `json:"theme"`
	Price        float64 `json:"price"`
	IsFree       bool    `json:"is_free"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type deckDetailsResponse struct {
	Deck      deckPayload        `json:"deck"`
	Cards     []ports.CardRecord `json:"cards"`
	CardCount int                `json:"cardCount"`
	HasAccess bool               `json:"hasAccess"`
}

// GetDeckDetails performs the single authoritative round trip resolving
// deck metadata, cards and play entitlement.
func (c *Client) GetDeckDetails(ctx context.Context, deckID, authToken string) (ports.DeckDetails, error) {
	body, err := c.call(ctx, "get-deck-details", deckDetailsRequest{DeckID: deckID}, authToken)
	if err != nil {
		return ports.DeckDetails{}, err
	}

	var resp deckDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ports.DeckDetails{}, fmt.Errorf("decode deck details: %w", err)
	}

	deck := domain.Deck{
		ID:        resp.Deck.ID,
		Name:      resp.Deck.Name,
		Theme:     resp.Deck.Theme,
		IsFree:    resp.Deck.IsFree,
		Price:     resp.Deck.Price,
		CardCount: resp.CardCount,
	}
	if resp.Deck.ThumbnailURL != nil {
		deck.ThumbnailURL = *resp.Deck.ThumbnailURL
	}

	return ports.DeckDetails{
		Deck:      deck,
		Cards:     resp.Cards,
		CardCount: resp.CardCount,
		HasAccess: resp.HasAccess,
	}, nil
}

type incrementPlaysRequest struct {
	DeckID string `json:"deckId"`
}

// IncrementDeckPlays bumps the deck's play counter. Callers treat the
// call as fire-and-forget.
func (c *Client) IncrementDeckPlays(ctx context.Context, deckID string) error {
	_, err := c.call(ctx, "increment-deck-plays", incrementPlaysRequest{DeckID: deckID}, "")
	return err
}

type recordSessionRequest struct {
	DeckID         string            `json:"deckId"`
	UserID         *string           `json:"userId"`
	CompletedCount int               `json:"completedCount"`
	PassedCount    int               `json:"passedCount"`
	TotalCards     int               `json:"totalCards"`
	StartedAt      string            `json:"startedAt"`
	FinishedAt     string            `json:"finishedAt"`
	CardPlays      []cardPlayPayload `json:"cardPlays"`
}

type cardPlayPayload struct {
	CardID   string `json:"cardId"`
	Action   string `json:"action"`
	PlayedAt string `json:"playedAt"`
}

type recordSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// RecordGameSession submits the finished session summary and decision
// log.
func (c *Client) RecordGameSession(ctx context.Context, report domain.SessionReport) (string, error) {
	req := recordSessionRequest{
		DeckID:         report.DeckID,
		CompletedCount: report.CompletedCount,
		PassedCount:    report.PassedCount,
		TotalCards:     report.TotalCards,
		StartedAt:      report.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:     report.FinishedAt.UTC().Format(time.RFC3339),
		CardPlays:      make([]cardPlayPayload, len(report.CardPlays)),
	}
	if report.UserID != "" {
		userID := report.UserID
		req.UserID = &userID
	}
	for i, play := range report.CardPlays {
		req.CardPlays[i] = cardPlayPayload{
			CardID:   play.CardID,
			Action:   string(play.Action),
			PlayedAt: play.PlayedAt.UTC().Format(time.RFC3339),
		}
	}

	body, err := c.call(ctx, "record-game-session", req, "")
	if err != nil {
		return "", err
	}

	var resp recordSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode record response: %w", err)
	}
	return resp.SessionID, nil
}

func (c *Client) call(ctx context.Context, fn string, payload any, authToken string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", fn, err)
	}

	url := c.baseURL + "/" + fn
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", fn, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", fn, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", fn, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrDeckNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.WarnContext(ctx, "backend function failed",
			"function", fn,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("%s status %d: %s", fn, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
