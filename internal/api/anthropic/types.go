// Package anthropic provides a minimal HTTP client for the Anthropic
// Messages API. It is shared by the direct-key adapter and the trial
// endpoint's server-side upstream call.
package anthropic

// MessagesRequest represents an Anthropic Messages API request.
type MessagesRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
}

// Message represents a conversational turn. The system prompt travels in the
// request's System field, never as a message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesResponse represents an Anthropic Messages API response.
type MessagesResponse struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Model   string         `json:"model"`
	Content []ContentBlock `json:"content"`
	Usage   Usage          `json:"usage"`
}

// ContentBlock is a single content block in a response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Text returns the text of the first text content block, or "" when the
// response carries none. A success response without text is treated as empty
// output rather than an error, so a partial upstream contract change does
// not break callers.
func (r *MessagesResponse) Text() string {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
