package llm

import (
	"context"
)

// Client defines the interface for chat-completion providers
type Client interface {
	// Chat sends a chat request and returns the response
	Chat(ctx context.Context, request *ChatRequest) (*ChatResponse, error)

	// Close cleans up any resources
	Close() error
}

// UserMessage builds a user message from text and image URLs
func UserMessage(text string, imageURLs ...string) Message {
	parts := []ContentPart{TextPart(text)}
	for _, url := range imageURLs {
		parts = append(parts, ImagePart(url))
	}
	return Message{Role: RoleUser, Content: parts}
}

// SystemMessage builds a system message with a single text part
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentPart{TextPart(text)}}
}

// FirstContent returns the text of the first choice, or nil when the
// response carries no choices or the first choice has no content.
func FirstContent(resp *ChatResponse) *string {
	if resp == nil || len(resp.Choices) == 0 {
		return nil
	}
	return resp.Choices[0].Content
}
