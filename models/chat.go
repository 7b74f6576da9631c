package models

// ChatRequest is the payload of an inbound text message.
type ChatRequest struct {
	Text string `json:"text" binding:"required"`
}

// CallbackRequest is the payload of a pressed button.
type CallbackRequest struct {
	Data string `json:"data" binding:"required"`
}

// ChatAction is a single button offered to the user.
type ChatAction struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// ChatMessage is one outbound message.
type ChatMessage struct {
	Text     string       `json:"text"`
	ImageURL string       `json:"imageUrl,omitempty"`
	Actions  []ChatAction `json:"actions,omitempty"`
}

// ChatResponse is what the chat endpoints return for one turn.
type ChatResponse struct {
	Stage    string        `json:"stage"`
	Messages []ChatMessage `json:"messages"`
}

// Add appends a message and returns the response for chaining.
func (r *ChatResponse) Add(text string, actions ...ChatAction) *ChatResponse {
	r.Messages = append(r.Messages, ChatMessage{Text: text, Actions: actions})
	return r
}
