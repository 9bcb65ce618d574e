package app

import "github.com/hamisigad71/rare-draw-demo1/internal/domain"

// EventType labels a session transition published to subscribers.
type EventType string

const (
	EventSwipe        EventType = "swipe"
	EventSettled      EventType = "settled"
	EventUndo         EventType = "undo"
	EventRestart      EventType = "restart"
	EventTerminal     EventType = "terminal"
	EventReportSaved  EventType = "report_saved"
	EventReportFailed EventType = "report_failed"
)

// Event is a presentation-layer notification of an applied transition.
// The session state remains the sole source of truth; events are
// cosmetic and may be dropped for slow subscribers.
type Event struct {
	Type         EventType        `json:"type"`
	SessionID    string           `json:"session_id"`
	Direction    domain.Direction `json:"direction,omitempty"`
	Position     int              `json:"position"`
	DisplayIndex int              `json:"display_index"`
	Progress     float64          `json:"progress"`
	Accepted     int              `json:"accepted"`
	Passed       int              `json:"passed"`
}
