package http

import (
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/app"
	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

// StartSessionRequest is the JSON body for POST /v1/sessions.
type StartSessionRequest struct {
	DeckID string `json:"deck_id" validate:"required"`
}

// SwipeRequest is the JSON body for POST /v1/sessions/:id/swipe.
type SwipeRequest struct {
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

// CardResponse is the card shape exposed over the API.
type CardResponse struct {
	ID                string `json:"id"`
	Description       string `json:"description"`
	ActionType        string `json:"action_type"`
	SuggesterNickname string `json:"suggester_nickname,omitempty"`
	IsEndCard         bool   `json:"is_end_card"`
}

// DeckResponse is the deck shape exposed over the API.
type DeckResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Theme        string  `json:"theme"`
	IsFree       bool    `json:"is_free"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	CardCount    int     `json:"card_count"`
}

// SessionResponse is the session snapshot returned by session
// endpoints.
type SessionResponse struct {
	ID           string        `json:"id"`
	Deck         DeckResponse  `json:"deck"`
	Position     int           `json:"position"`
	Accepted     int           `json:"accepted"`
	Passed       int           `json:"passed"`
	Playable     int           `json:"playable_cards"`
	Progress     float64       `json:"progress"`
	DisplayIndex int           `json:"display_index"`
	CurrentCard  *CardResponse `json:"current_card,omitempty"`
	AtTerminal   bool          `json:"at_terminal"`
	InTransition bool          `json:"in_transition"`
	CanUndo      bool          `json:"can_undo"`
	ReportState  string        `json:"report_state"`
	StartedAt    time.Time     `json:"started_at"`
}

// TransitionResponse wraps a session snapshot with whether the
// requested transition was applied. Rejected transitions are no-ops,
// not errors.
type TransitionResponse struct {
	Applied bool            `json:"applied"`
	Session SessionResponse `json:"session"`
}

// PurchaseRequiredResponse is returned when a deck exists but the
// caller lacks entitlement; it carries what a purchase prompt needs.
type PurchaseRequiredResponse struct {
	Error     string  `json:"error"`
	DeckID    string  `json:"deck_id"`
	DeckName  string  `json:"deck_name"`
	Price     float64 `json:"price"`
	CardCount int     `json:"card_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toDeckResponse(d domain.Deck, cardCount int) DeckResponse {
	return DeckResponse{
		ID:           d.ID,
		Name:         d.Name,
		Theme:        d.Theme,
		IsFree:       d.IsFree,
		Price:        d.Price,
		ThumbnailURL: d.ThumbnailURL,
		CardCount:    cardCount,
	}
}

func toSessionResponse(v app.SessionView) SessionResponse {
	resp := SessionResponse{
		ID:           v.ID,
		Deck:         toDeckResponse(v.Deck, v.CardCount),
		Position:     v.Position,
		Accepted:     v.Accepted,
		Passed:       v.Passed,
		Playable:     v.Playable,
		Progress:     v.Progress,
		DisplayIndex: v.DisplayIndex,
		AtTerminal:   v.AtTerminal,
		InTransition: v.InTransition,
		CanUndo:      v.CanUndo,
		ReportState:  string(v.ReportState),
		StartedAt:    v.StartedAt,
	}
	if v.CurrentCard != nil {
		resp.CurrentCard = &CardResponse{
			ID:                v.CurrentCard.ID,
			Description:       v.CurrentCard.Description,
			ActionType:        v.CurrentCard.ActionType,
			SuggesterNickname: v.CurrentCard.SuggesterNickname,
			IsEndCard:         v.CurrentCard.IsEndCard,
		}
	}
	return resp
}
