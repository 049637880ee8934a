package chat_dto

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
	// Confirmed marks that the user saw a warning verdict for this exact
	// body and chose to send anyway. It never bypasses a blocked verdict.
	Confirmed bool `json:"confirmed"`
}

type GuardCheckRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}
