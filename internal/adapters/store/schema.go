package store

// schema mirrors the minimal backend shape the session engine depends
// on: decks, their cards, purchase records for gating, and recorded
// game sessions with their per-card decision logs.
const schema = `
CREATE TABLE IF NOT EXISTS decks (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    theme         TEXT NOT NULL DEFAULT '',
    price         REAL NOT NULL DEFAULT 0,
    is_free       INTEGER NOT NULL DEFAULT 0,
    creator_id    TEXT,
    thumbnail_url TEXT,
    plays         INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cards (
    id                 TEXT PRIMARY KEY,
    deck_id            TEXT NOT NULL REFERENCES decks(id),
    description        TEXT,
    action_type        TEXT NOT NULL,
    order_index        INTEGER,
    suggester_nickname TEXT
);

CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);

CREATE TABLE IF NOT EXISTS purchases (
    id           TEXT PRIMARY KEY,
    deck_id      TEXT NOT NULL REFERENCES decks(id),
    user_id      TEXT NOT NULL,
    purchased_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (deck_id, user_id)
);

CREATE TABLE IF NOT EXISTS game_sessions (
    id               TEXT PRIMARY KEY,
    deck_id          TEXT NOT NULL REFERENCES decks(id),
    user_id          TEXT,
    completed_count  INTEGER NOT NULL,
    passed_count     INTEGER NOT NULL,
    total_cards      INTEGER NOT NULL,
    duration_seconds REAL NOT NULL,
    started_at       TIMESTAMP NOT NULL,
    finished_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS card_plays (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES game_sessions(id),
    card_id    TEXT NOT NULL,
    action     TEXT NOT NULL CHECK (action IN ('completed', 'passed')),
    played_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_card_plays_session ON card_plays(session_id);
`
