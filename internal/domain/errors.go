package domain

import "errors"

var (
	ErrDeckNotFound    = errors.New("deck not found")
	ErrSessionNotFound = errors.New("session not found")
)
