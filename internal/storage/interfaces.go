package storage

import "context"

// ForwardStore is the dedupe store consulted before and committed after a
// relay. Check and mark are separate calls; callers must not run
// concurrent relays of the same (chatID, messageID) pair.
type ForwardStore interface {
	// IsForwarded reports whether the source post was already relayed.
	IsForwarded(ctx context.Context, chatID string, messageID int) (bool, error)
	// MarkForwarded records the source post as relayed.
	MarkForwarded(ctx context.Context, chatID string, messageID int) error
}
