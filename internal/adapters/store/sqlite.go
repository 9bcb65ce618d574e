package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/hamisigad71/rare-draw-demo1/internal/domain"
	"github.com/hamisigad71/rare-draw-demo1/internal/ports"
)

// maxCardPlays caps how many decision-log entries one recorded session
// stores.
const maxCardPlays = 200

// SQLiteStore is a self-contained implementation of the deck, play
// counter and session persistence collaborators, backed by a local
// SQLite database. It resolves bearer tokens with the injected verifier
// the same way the hosted backend does.
type SQLiteStore struct {
	db       *sql.DB
	verifier ports.TokenVerifier
	logger   *slog.Logger
}

// Open creates the database connection, applies pragmas and ensures the
// schema exists.
func Open(dsn string, verifier ports.TokenVerifier, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, verifier: verifier, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetDeckDetails resolves the deck, its card list and the access
// decision in one call. Free decks, decks created by the caller and
// purchased decks grant access; card content is returned only when
// access holds.
func (s *SQLiteStore) GetDeckDetails(ctx context.Context, deckID, authToken string) (ports.DeckDetails, error) {
	var (
		deck      domain.Deck
		creatorID sql.NullString
		thumbnail sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, theme, price, is_free, creator_id, thumbnail_url
		FROM decks WHERE id = ?
	`, deckID).Scan(&deck.ID, &deck.Name, &deck.Theme, &deck.Price, &deck.IsFree, &creatorID, &thumbnail)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DeckDetails{}, domain.ErrDeckNotFound
	}
	if err != nil {
		return ports.DeckDetails{}, fmt.Errorf("query deck %s: %w", deckID, err)
	}
	if thumbnail.Valid {
		deck.ThumbnailURL = thumbnail.String
	}

	userID := s.resolveUser(ctx, authToken)

	hasAccess := deck.IsFree
	if !hasAccess && userID != "" {
		if creatorID.Valid && creatorID.String == userID {
			hasAccess = true
		} else {
			var purchaseID string
			err := s.db.QueryRowContext(ctx,
				`SELECT id FROM purchases WHERE deck_id = ? AND user_id = ?`,
				deckID, userID,
			).Scan(&purchaseID)
			switch {
			case err == nil:
				hasAccess = true
			case errors.Is(err, sql.ErrNoRows):
			default:
				return ports.DeckDetails{}, fmt.Errorf("check purchase: %w", err)
			}
		}
	}

	var cardCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deckID,
	).Scan(&cardCount); err != nil {
		return ports.DeckDetails{}, fmt.Errorf("count cards: %w", err)
	}
	deck.CardCount = cardCount

	details := ports.DeckDetails{
		Deck:      deck,
		CardCount: cardCount,
		HasAccess: hasAccess,
	}

	// Card content must not reach unauthorized callers.
	if !hasAccess {
		return details, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, action_type, order_index, suggester_nickname
		FROM cards WHERE deck_id = ? ORDER BY order_index
	`, deckID)
	if err != nil {
		return ports.DeckDetails{}, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec         ports.CardRecord
			description sql.NullString
			orderIndex  sql.NullInt64
			nickname    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &description, &rec.ActionType, &orderIndex, &nickname); err != nil {
			return ports.DeckDetails{}, fmt.Errorf("scan card: %w", err)
		}
		if description.Valid {
			rec.Description = &description.String
		}
		if orderIndex.Valid {
			idx := int(orderIndex.Int64)
			rec.OrderIndex = &idx
		}
		if nickname.Valid {
			rec.SuggesterNickname = &nickname.String
		}
		details.Cards = append(details.Cards, rec)
	}
	if err := rows.Err(); err != nil {
		return ports.DeckDetails{}, fmt.Errorf("iterate cards: %w", err)
	}

	return details, nil
}

// IncrementDeckPlays bumps the deck's play counter.
func (s *SQLiteStore) IncrementDeckPlays(ctx context.Context, deckID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE decks SET plays = plays + 1 WHERE id = ?`, deckID)
	if err != nil {
		return fmt.Errorf("increment plays for %s: %w", deckID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrDeckNotFound
	}
	return nil
}

// RecordGameSession stores the session summary and its decision log in
// one transaction.
func (s *SQLiteStore) RecordGameSession(ctx context.Context, report domain.SessionReport) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sessionID := uuid.NewString()

	var userID sql.NullString
	if report.UserID != "" {
		userID = sql.NullString{String: report.UserID, Valid: true}
	}

	duration := report.FinishedAt.Sub(report.StartedAt).Seconds()
	if duration < 0 {
		duration = 0
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_sessions
			(id, deck_id, user_id, completed_count, passed_count, total_cards, duration_seconds, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, report.DeckID, userID,
		report.CompletedCount, report.PassedCount, report.TotalCards,
		duration, report.StartedAt, report.FinishedAt,
	); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	plays := report.CardPlays
	if len(plays) > maxCardPlays {
		plays = plays[:maxCardPlays]
	}
	for _, play := range plays {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO card_plays (session_id, card_id, action, played_at)
			VALUES (?, ?, ?, ?)
		`, sessionID, play.CardID, string(play.Action), play.PlayedAt); err != nil {
			return "", fmt.Errorf("insert card play: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit session: %w", err)
	}
	return sessionID, nil
}

// InsertDeck adds a deck row. Used for seeding and tests.
func (s *SQLiteStore) InsertDeck(ctx context.Context, deck domain.Deck, creatorID string) error {
	var creator sql.NullString
	if creatorID != "" {
		creator = sql.NullString{String: creatorID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (id, name, theme, price, is_free, creator_id, thumbnail_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, deck.ID, deck.Name, deck.Theme, deck.Price, deck.IsFree, creator, deck.ThumbnailURL)
	if err != nil {
		return fmt.Errorf("insert deck %s: %w", deck.ID, err)
	}
	return nil
}

// InsertCard adds a card row to a deck. Used for seeding and tests.
func (s *SQLiteStore) InsertCard(ctx context.Context, deckID string, rec ports.CardRecord) error {
	var (
		description sql.NullString
		orderIndex  sql.NullInt64
		nickname    sql.NullString
	)
	if rec.Description != nil {
		description = sql.NullString{String: *rec.Description, Valid: true}
	}
	if rec.OrderIndex != nil {
		orderIndex = sql.NullInt64{Int64: int64(*rec.OrderIndex), Valid: true}
	}
	if rec.SuggesterNickname != nil {
		nickname = sql.NullString{String: *rec.SuggesterNickname, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, deck_id, description, action_type, order_index, suggester_nickname)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, deckID, description, rec.ActionType, orderIndex, nickname)
	if err != nil {
		return fmt.Errorf("insert card %s: %w", rec.ID, err)
	}
	return nil
}

// AddPurchase records a purchase granting deck access to a user.
func (s *SQLiteStore) AddPurchase(ctx context.Context, deckID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, deck_id, user_id) VALUES (?, ?, ?)
	`, uuid.NewString(), deckID, userID)
	if err != nil {
		return fmt.Errorf("add purchase: %w", err)
	}
	return nil
}

// DeckPlays reads the play counter. Used in tests.
func (s *SQLiteStore) DeckPlays(ctx context.Context, deckID string) (int, error) {
	var plays int
	err := s.db.QueryRowContext(ctx, `SELECT plays FROM decks WHERE id = ?`, deckID).Scan(&plays)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDeckNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query plays: %w", err)
	}
	return plays, nil
}

func (s *SQLiteStore) resolveUser(ctx context.Context, authToken string) string {
	if authToken == "" || s.verifier == nil {
		return ""
	}
	userID, err := s.verifier.Verify(ctx, authToken)
	if err != nil {
		s.logger.WarnContext(ctx, "token verification failed, treating caller as anonymous", "error", err)
		return ""
	}
	return userID
}
