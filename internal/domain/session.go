package domain

import "time"

// MaxSessionCards bounds how many real cards a single session draws
// from a deck.
const MaxSessionCards = 50

// Session is the in-memory state of one playthrough of a deck: the
// shuffled card list, the current position, decision counters, a linear
// undo history and the decision log submitted when the terminal card is
// reached.
//
// A Session is owned by a single caller and is not safe for concurrent
// use; callers that share one serialize access themselves.
type Session struct {
	id     string
	deckID string
	userID string

	base  []Card // shuffled, capped, pre-terminal; kept for Restart
	cards []Card // base plus the end card

	position int
	accepted int
	passed   int
	history  []HistoryEntry
	plays    []CardPlay

	startedAt    time.Time
	inTransition bool
	reported     bool
	reporting    bool

	rng   RNG
	clock func() time.Time
	newID func() string
}

// NewSession creates a session over an already shuffled and capped base
// card list. The terminal card is appended here and exists exactly once,
// always last.
func NewSession(deckID, userID string, base []Card, rng RNG, clock func() time.Time, newID func() string) *Session {
	if clock == nil {
		clock = time.Now
	}
	s := &Session{
		deckID: deckID,
		userID: userID,
		base:   append([]Card(nil), base...),
		rng:    rng,
		clock:  clock,
		newID:  newID,
	}
	s.reset(s.base)
	return s
}

func (s *Session) reset(base []Card) {
	s.cards = make([]Card, 0, len(base)+1)
	s.cards = append(s.cards, base...)
	s.cards = append(s.cards, NewEndCard(s.deckID))
	s.position = 0
	s.accepted = 0
	s.passed = 0
	s.history = nil
	s.plays = nil
	s.inTransition = false
	s.reported = false
	s.reporting = false
	s.id = s.newID()
	s.startedAt = s.clock()
}

// Swipe applies a decision to the current card. It returns false without
// changing state while a transition is settling or when the current card
// is the terminal card; rapid duplicate input must not corrupt state.
func (s *Session) Swipe(direction Direction) bool {
	if s.inTransition {
		return false
	}
	card, ok := s.CurrentCard()
	if !ok || card.IsEndCard {
		return false
	}

	s.history = append(s.history, HistoryEntry{Position: s.position, Direction: direction})
	if direction == SwipeRight {
		s.accepted++
	} else {
		s.passed++
	}
	s.plays = append(s.plays, CardPlay{
		CardID:   card.ID,
		Action:   ActionForDirection(direction),
		PlayedAt: s.clock(),
	})

	if next := s.position + 1; next < len(s.cards) {
		s.position = next
	} else {
		s.position = len(s.cards) - 1
	}
	s.inTransition = true
	return true
}

// Accept swipes the current card right.
func (s *Session) Accept() bool { return s.Swipe(SwipeRight) }

// Pass swipes the current card left.
func (s *Session) Pass() bool { return s.Swipe(SwipeLeft) }

// Settle releases the transition lock once the presentation layer has
// finished animating the swipe. Idempotent.
func (s *Session) Settle() {
	s.inTransition = false
}

// Undo reverts the most recent swipe: position, the matching counter and
// the last decision-log entry. It returns false while a transition is
// settling or when there is nothing to undo. Undo takes no transition
// lock; there is no reverse animation to await.
func (s *Session) Undo() bool {
	if s.inTransition || len(s.history) == 0 {
		return false
	}

	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	if last.Direction == SwipeRight {
		if s.accepted > 0 {
			s.accepted--
		}
	} else {
		if s.passed > 0 {
			s.passed--
		}
	}
	if len(s.plays) > 0 {
		s.plays = s.plays[:len(s.plays)-1]
	}
	s.position = last.Position
	return true
}

// Restart reshuffles the base card list and resets the session for a
// fresh playthrough: new session ID, new start timestamp, cleared
// counters, history, decision log and report flags.
func (s *Session) Restart() {
	s.reset(Shuffle(s.base, s.rng))
}

// TryBeginReport marks the report in flight. It returns true exactly
// once per session instance: the flag is set synchronously before any
// network call starts, so concurrent terminal detections cannot
// double-submit.
func (s *Session) TryBeginReport() bool {
	if s.reported || s.reporting {
		return false
	}
	s.reporting = true
	return true
}

// MarkReported records a successful submission, permanently suppressing
// resubmission for this session instance.
func (s *Session) MarkReported() {
	s.reported = true
}

// Reported reports whether the session summary was durably recorded.
func (s *Session) Reported() bool { return s.reported }

// BuildReport assembles the submission payload for the persistence
// collaborator.
func (s *Session) BuildReport(finishedAt time.Time) SessionReport {
	return SessionReport{
		DeckID:         s.deckID,
		UserID:         s.userID,
		CompletedCount: s.accepted,
		PassedCount:    s.passed,
		TotalCards:     s.PlayableCount(),
		StartedAt:      s.startedAt,
		FinishedAt:     finishedAt,
		CardPlays:      s.Plays(),
	}
}

// ID returns the session identifier. Restart generates a new one.
func (s *Session) ID() string { return s.id }

func (s *Session) DeckID() string { return s.deckID }

func (s *Session) UserID() string { return s.userID }

func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) Position() int { return s.position }

func (s *Session) Accepted() int { return s.accepted }

func (s *Session) Passed() int { return s.passed }

func (s *Session) InTransition() bool { return s.inTransition }

func (s *Session) HistoryLen() int { return len(s.history) }

// PlayableCount is the number of real cards in the session, excluding
// the terminal card.
func (s *Session) PlayableCount() int { return len(s.cards) - 1 }

// CurrentCard returns the card at the current position.
func (s *Session) CurrentCard() (Card, bool) {
	if s.position < 0 || s.position >= len(s.cards) {
		return Card{}, false
	}
	return s.cards[s.position], true
}

// AtTerminal reports whether the current position addresses the end
// card.
func (s *Session) AtTerminal() bool {
	card, ok := s.CurrentCard()
	return ok && card.IsEndCard
}

// Progress returns the completion percentage in [0, 100]. It is 0 for a
// session with no playable cards and reaches 100 exactly at the terminal
// card.
func (s *Session) Progress() float64 {
	playable := s.PlayableCount()
	if playable == 0 {
		return 0
	}
	pos := s.position
	if pos > playable {
		pos = playable
	}
	return float64(pos) / float64(playable) * 100
}

// DisplayIndex is the 1-based index shown for the current card, clamped
// so the terminal card displays the final count instead of overflowing.
func (s *Session) DisplayIndex() int {
	playable := s.PlayableCount()
	if idx := s.position + 1; idx < playable {
		return idx
	}
	return playable
}

// Plays returns a copy of the decision log in play order.
func (s *Session) Plays() []CardPlay {
	return append([]CardPlay(nil), s.plays...)
}

// BaseCards returns a copy of the shuffled base list the session was
// built from.
func (s *Session) BaseCards() []Card {
	return append([]Card(nil), s.base...)
}

// Cards returns a copy of the live card list including the end card.
func (s *Session) Cards() []Card {
	return append([]Card(nil), s.cards...)
}
