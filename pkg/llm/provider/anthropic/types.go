package anthropic

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the non-streaming Messages API response.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// streamEvent covers the fields read from any streaming event payload.
type streamEvent struct {
	Type  string    `json:"type"`
	Delta *delta    `json:"delta,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type delta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type errorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
