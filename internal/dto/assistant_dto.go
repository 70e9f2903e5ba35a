package dto

// AssistantChatRequest is a free-text admin prompt.
type AssistantChatRequest struct {
	Prompt string `json:"prompt"`
}

// AssistantChatResponse is the assistant's reply. Intent is omitted when the
// prompt was not recognised.
type AssistantChatResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Intent  string `json:"intent,omitempty"`
}
