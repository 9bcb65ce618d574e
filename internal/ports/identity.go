package ports

import "context"

// TokenVerifier resolves a bearer token to a stable user identifier.
// An empty token means anonymous play, which is permitted for free
// decks.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}
