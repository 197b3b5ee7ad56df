package models

import "time"

// ForwardRecord marks a source post as relayed. One record exists per
// (chat_id, message_id) pair; the pair carries a unique compound index.
type ForwardRecord struct {
	ChatID      string    `bson:"chat_id"`
	MessageID   int       `bson:"message_id"`
	ForwardedAt time.Time `bson:"forwarded_at"`
}
