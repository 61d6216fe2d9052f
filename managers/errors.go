package managers

import "errors"

// Sentinel errors returned across the manager boundary. Store-level
// failures are logged where they happen and surfaced as ErrStoreUnavailable;
// raw driver errors never reach the controllers.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotParticipant     = errors.New("not a participant of this conversation")
	ErrAlreadyResolved    = errors.New("request already resolved")
	ErrConversationClosed = errors.New("conversation is closed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStoreUnavailable   = errors.New("store unavailable")
)
