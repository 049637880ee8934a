package types

import "time"

// BroadcastMessagePayload is the queue payload for fan-out of one
// persisted message to its room's live subscribers.
type BroadcastMessagePayload struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  *string   `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SweepPayload triggers one expiry sweep run.
type SweepPayload struct {
	TriggeredBy string    `json:"triggered_by"` // scheduler | manual
	RequestedAt time.Time `json:"requested_at"`
}
