package proxy

// Message is a chat message in the completion API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat completion request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse is the subset of the completion response we consume.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

// Choice is one completion alternative.
type Choice struct {
	Message Message `json:"message"`
}
