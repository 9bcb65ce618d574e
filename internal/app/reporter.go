package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// Reporter submits a finished session's summary and decision log to the
// persistence collaborator. Submission is bounded by an explicit timeout
// so a hung request cannot wedge the session view, and the context is
// cancellable so teardown aborts a dangling write.
type Reporter struct {
	store   ports.SessionStore
	logger  *slog.Logger
	timeout time.Duration
}

func NewReporter(store ports.SessionStore, logger *slog.Logger, timeout time.Duration) *Reporter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reporter{store: store, logger: logger, timeout: timeout}
}

// Submit performs the single network call recording the session. The
// caller holds the submit-once guard; Submit itself does not retry.
func (r *Reporter) Submit(ctx context.Context, sessionID string, report domain.SessionReport) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.InfoContext(ctx, "submitting game session",
		"session_id", sessionID,
		"deck_id", report.DeckID,
		"completed", report.CompletedCount,
		"passed", report.PassedCount,
		"total_cards", report.TotalCards,
		"events_recorded", len(report.CardPlays),
	)

	storedID, err := r.store.RecordGameSession(ctx, report)
	if err != nil {
		return "", fmt.Errorf("record game session: %w", err)
	}

	r.logger.InfoContext(ctx, "game session recorded",
		"session_id", sessionID,
		"stored_session_id", storedID,
	)
	return storedID, nil
}
