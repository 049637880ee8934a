package chat_dto

import "time"

type MessageResponse struct {
	MessageID string    `json:"message_id"`
	RoomID    string    `json:"room_id"`
	SenderID  *string   `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type RoomResponse struct {
	RoomID    string    `json:"room_id"`
	Kind      string    `json:"kind"`
	StateCode *string   `json:"state_code,omitempty"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactResponse struct {
	ContactID     string    `json:"contact_id"`
	Name          string    `json:"name,omitempty"`
	CRM           string    `json:"crm,omitempty"`
	LastContactAt time.Time `json:"last_contact_at"`
}

type ListContactsResponse struct {
	Contacts []ContactResponse `json:"contacts"`
}

type SweepResponse struct {
	Deleted int64 `json:"deleted"`
}
