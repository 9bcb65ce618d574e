package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// ReportState is the submission status surfaced alongside session state
// so callers can render a dismissible warning when the durable record is
// missing.
type ReportState string

const (
	ReportNone    ReportState = "none"
	ReportPending ReportState = "pending"
	ReportSaved   ReportState = "saved"
	ReportFailed  ReportState = "failed"
)

// SessionView is a read-only snapshot of a live session.
type SessionView struct {
	ID           string       `json:"id"`
	Deck         domain.Deck  `json:"deck"`
	CardCount    int          `json:"card_count"`
	Position     int          `json:"position"`
	Accepted     int          `json:"accepted"`
	Passed       int          `json:"passed"`
	Playable     int          `json:"playable_cards"`
	Progress     float64      `json:"progress"`
	DisplayIndex int          `json:"display_index"`
	CurrentCard  *domain.Card `json:"current_card,omitempty"`
	AtTerminal   bool         `json:"at_terminal"`
	InTransition bool         `json:"in_transition"`
	CanUndo      bool         `json:"can_undo"`
	ReportState  ReportState  `json:"report_state"`
	StartedAt    time.Time    `json:"started_at"`
}

// StartResult is the outcome of starting a session. Denied carries the
// deck (with price) and card count so callers can offer a purchase
// instead of erroring out.
type StartResult struct {
	Denied    bool
	Deck      domain.Deck
	CardCount int
	Session   *SessionView
}

// GameService owns the registry of live sessions and applies every
// transition under a per-session mutex, keeping transitions strictly
// sequential as they are on a single-threaded UI loop.
type GameService struct {
	loader   *DeckLoader
	reporter *Reporter
	verifier ports.TokenVerifier
	rng      domain.RNG
	clock    func() time.Time
	newID    func() string
	logger   *slog.Logger
	baseCtx  context.Context
	ttl      time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu          sync.Mutex
	handle      string
	sess        *domain.Session
	deck        domain.Deck
	cardCount   int
	reportState ReportState
	lastTouched atomic.Int64 // unix nanos; read during eviction

	nextSub int
	subs    map[int]chan Event
}

// GameServiceConfig collects the dependencies of NewGameService.
type GameServiceConfig struct {
	Loader   *DeckLoader
	Reporter *Reporter
	Verifier ports.TokenVerifier
	RNG      domain.RNG
	Clock    func() time.Time
	NewID    func() string
	Logger   *slog.Logger
	// BaseCtx bounds the lifetime of in-flight report submissions;
	// cancelling it aborts dangling writes at shutdown.
	BaseCtx context.Context
	// SessionTTL evicts sessions idle longer than this. Zero disables
	// eviction.
	SessionTTL time.Duration
}

func NewGameService(cfg GameServiceConfig) *GameService {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	baseCtx := cfg.BaseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &GameService{
		loader:   cfg.Loader,
		reporter: cfg.Reporter,
		verifier: cfg.Verifier,
		rng:      cfg.RNG,
		clock:    clock,
		newID:    cfg.NewID,
		logger:   cfg.Logger,
		baseCtx:  baseCtx,
		ttl:      cfg.SessionTTL,
		sessions: make(map[string]*liveSession),
	}
}

// Start loads the deck and, when playable, creates a fresh session.
func (g *GameService) Start(ctx context.Context, deckID, authToken string) (StartResult, error) {
	userID := g.resolveUser(ctx, authToken)

	load, err := g.loader.Load(ctx, deckID, authToken)
	if err != nil {
		return StartResult{}, err
	}

	if !load.Playable {
		return StartResult{
			Denied:    true,
			Deck:      load.Deck,
			CardCount: load.CardCount,
		}, nil
	}

	sess := domain.NewSession(deckID, userID, load.BaseCards, g.rng, g.clock, g.newID)
	ls := &liveSession{
		handle:      g.newID(),
		sess:        sess,
		deck:        load.Deck,
		cardCount:   load.CardCount,
		reportState: ReportNone,
		subs:        make(map[int]chan Event),
	}
	ls.touch(g.clock())

	g.mu.Lock()
	g.evictStaleLocked()
	g.sessions[ls.handle] = ls
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "started game session",
		"session_id", ls.handle,
		"deck_id", deckID,
		"user_id", userID,
		"playable_cards", sess.PlayableCount(),
	)

	ls.mu.Lock()
	// A deck with zero playable cards is terminal immediately.
	g.maybeReportLocked(ls)
	view := g.viewLocked(ls)
	ls.mu.Unlock()

	return StartResult{
		Deck:      load.Deck,
		CardCount: load.CardCount,
		Session:   &view,
	}, nil
}

// Get returns the current session snapshot.
func (g *GameService) Get(_ context.Context, sessionID string) (SessionView, error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return g.viewLocked(ls), nil
}

// Swipe applies a decision to the current card. applied is false for
// no-op transitions (animation lock, terminal card); those never error.
func (g *GameService) Swipe(ctx context.Context, sessionID string, direction domain.Direction) (SessionView, bool, error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return SessionView{}, false, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.touch(g.clock())

	applied := ls.sess.Swipe(direction)
	if !applied {
		g.logger.DebugContext(ctx, "swipe ignored",
			"session_id", sessionID,
			"direction", direction,
			"in_transition", ls.sess.InTransition(),
			"at_terminal", ls.sess.AtTerminal(),
		)
		return g.viewLocked(ls), false, nil
	}

	g.logger.InfoContext(ctx, "player swiped card",
		"session_id", sessionID,
		"deck_id", ls.sess.DeckID(),
		"direction", direction,
		"position", ls.sess.Position(),
	)
	g.publishLocked(ls, EventSwipe, direction)

	if ls.sess.AtTerminal() {
		g.publishLocked(ls, EventTerminal, "")
		g.maybeReportLocked(ls)
	}

	return g.viewLocked(ls), true, nil
}

// Settle releases the animation lock for the last swipe.
func (g *GameService) Settle(_ context.Context, sessionID string) (SessionView, error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.touch(g.clock())
	ls.sess.Settle()
	g.publishLocked(ls, EventSettled, "")
	return g.viewLocked(ls), nil
}

// Undo reverts the most recent swipe.
func (g *GameService) Undo(ctx context.Context, sessionID string) (SessionView, bool, error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return SessionView{}, false, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.touch(g.clock())

	applied := ls.sess.Undo()
	if !applied {
		g.logger.DebugContext(ctx, "undo ignored",
			"session_id", sessionID,
			"in_transition", ls.sess.InTransition(),
			"history_len", ls.sess.HistoryLen(),
		)
		return g.viewLocked(ls), false, nil
	}

	g.logger.InfoContext(ctx, "player navigated back",
		"session_id", sessionID,
		"position", ls.sess.Position(),
	)
	g.publishLocked(ls, EventUndo, "")
	return g.viewLocked(ls), true, nil
}

// Restart reshuffles the base card list into a fresh playthrough. It is
// a no-op when the session has no base cards.
func (g *GameService) Restart(ctx context.Context, sessionID string) (SessionView, bool, error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return SessionView{}, false, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.touch(g.clock())

	if ls.sess.PlayableCount() == 0 {
		g.logger.WarnContext(ctx, "cannot restart session without base cards",
			"session_id", sessionID,
		)
		return g.viewLocked(ls), false, nil
	}

	ls.sess.Restart()
	ls.reportState = ReportNone

	g.logger.InfoContext(ctx, "restarted deck session",
		"session_id", sessionID,
		"deck_id", ls.sess.DeckID(),
	)
	g.publishLocked(ls, EventRestart, "")
	return g.viewLocked(ls), true, nil
}

// Subscribe attaches a presentation-layer listener to the session's
// event stream. The returned cancel function must be called when the
// listener goes away.
func (g *GameService) Subscribe(sessionID string) (<-chan Event, func(), error) {
	ls, err := g.lookup(sessionID)
	if err != nil {
		return nil, nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	id := ls.nextSub
	ls.nextSub++
	ch := make(chan Event, 16)
	ls.subs[id] = ch

	cancel := func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		if _, ok := ls.subs[id]; ok {
			delete(ls.subs, id)
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (ls *liveSession) touch(now time.Time) {
	ls.lastTouched.Store(now.UnixNano())
}

func (g *GameService) lookup(sessionID string) (*liveSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ls, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return ls, nil
}

func (g *GameService) resolveUser(ctx context.Context, authToken string) string {
	if authToken == "" || g.verifier == nil {
		return ""
	}
	userID, err := g.verifier.Verify(ctx, authToken)
	if err != nil {
		// A bad token degrades to anonymous play rather than failing
		// the load; free decks remain playable.
		g.logger.WarnContext(ctx, "token verification failed, treating as anonymous", "error", err)
		return ""
	}
	return userID
}

// maybeReportLocked triggers the one-shot terminal submission. The
// submit-once guard is taken synchronously, before the network call, so
// concurrent terminal detections cannot double-submit. Caller holds
// ls.mu.
func (g *GameService) maybeReportLocked(ls *liveSession) {
	if !ls.sess.AtTerminal() || !ls.sess.TryBeginReport() {
		return
	}

	ls.reportState = ReportPending
	finishedAt := g.clock()
	report := ls.sess.BuildReport(finishedAt)
	instanceID := ls.sess.ID()
	handle := ls.handle

	go func() {
		_, err := g.reporter.Submit(g.baseCtx, handle, report)

		ls.mu.Lock()
		defer ls.mu.Unlock()

		// Restart may have superseded this instance while the call was
		// in flight; its outcome then belongs to a discarded session.
		if ls.sess.ID() != instanceID {
			return
		}

		if err != nil {
			ls.reportState = ReportFailed
			g.logger.Warn("failed to record game session",
				"session_id", handle,
				"deck_id", report.DeckID,
				"error", err,
			)
			g.publishLocked(ls, EventReportFailed, "")
			return
		}

		ls.sess.MarkReported()
		ls.reportState = ReportSaved
		g.publishLocked(ls, EventReportSaved, "")
	}()
}

// publishLocked fans an event out to subscribers without blocking; slow
// subscribers drop events. Caller holds ls.mu.
func (g *GameService) publishLocked(ls *liveSession, typ EventType, direction domain.Direction) {
	ev := Event{
		Type:         typ,
		SessionID:    ls.handle,
		Direction:    direction,
		Position:     ls.sess.Position(),
		DisplayIndex: ls.sess.DisplayIndex(),
		Progress:     ls.sess.Progress(),
		Accepted:     ls.sess.Accepted(),
		Passed:       ls.sess.Passed(),
	}
	for _, ch := range ls.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (g *GameService) viewLocked(ls *liveSession) SessionView {
	view := SessionView{
		ID:           ls.handle,
		Deck:         ls.deck,
		CardCount:    ls.cardCount,
		Position:     ls.sess.Position(),
		Accepted:     ls.sess.Accepted(),
		Passed:       ls.sess.Passed(),
		Playable:     ls.sess.PlayableCount(),
		Progress:     ls.sess.Progress(),
		DisplayIndex: ls.sess.DisplayIndex(),
		AtTerminal:   ls.sess.AtTerminal(),
		InTransition: ls.sess.InTransition(),
		CanUndo:      ls.sess.HistoryLen() > 0 && !ls.sess.InTransition(),
		ReportState:  ls.reportState,
		StartedAt:    ls.sess.StartedAt(),
	}
	if card, ok := ls.sess.CurrentCard(); ok {
		view.CurrentCard = &card
	}
	return view
}

// evictStaleLocked drops sessions idle longer than the TTL. Caller
// holds g.mu.
func (g *GameService) evictStaleLocked() {
	if g.ttl <= 0 {
		return
	}
	cutoff := g.clock().Add(-g.ttl)
	for id, ls := range g.sessions {
		if time.Unix(0, ls.lastTouched.Load()).Before(cutoff) {
			delete(g.sessions, id)
		}
	}
}
