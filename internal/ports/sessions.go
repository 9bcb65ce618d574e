package ports

import (
	"context"

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
)

// SessionStore persists finished session summaries. Callers guard
// against duplicate submission; the store is not required to
// de-duplicate.
type SessionStore interface {
	// RecordGameSession stores the report and returns the persisted
	// session identifier.
	RecordGameSession(ctx context.Context, report domain.SessionReport) (string, error)
}
