package websocket

import "time"

// TypeChatMessage is the only envelope type this service publishes.
const TypeChatMessage = "chat_message"

// Envelope is the wire contract for fan-out delivery. Clients that miss
// an envelope recover by re-fetching the room's messages; there is no
// replay here.
type Envelope struct {
	Type    string         `json:"type"`
	RoomID  string         `json:"roomId"`
	Message MessagePayload `json:"message"`
}

type MessagePayload struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  *string   `json:"senderId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewChatMessageEnvelope(msg MessagePayload) Envelope {
	return Envelope{
		Type:    TypeChatMessage,
		RoomID:  msg.RoomID,
		Message: msg,
	}
}
