package workflow

import (
	"context"
	"strings"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/llm"
)

// BuildRequest assembles the chat request for one prompt and image. A
// system message is only included when the settings carry a persona.
func BuildRequest(s config.Settings, prompt, dataURI string) *llm.ChatRequest {
	messages := make([]llm.Message, 0, 2)
	if strings.TrimSpace(s.SystemPrompt) != "" {
		messages = append(messages, llm.SystemMessage(s.SystemPrompt))
	}
	messages = append(messages, llm.UserMessage(prompt, dataURI))

	return &llm.ChatRequest{
		Model:     s.Model,
		MaxTokens: s.MaxTokens,
		Messages:  messages,
	}
}

// Completion is the text of the first choice plus accounting
type Completion struct {
	Text  string
	Usage *llm.Usage
}

// RequestCompletion performs the single round trip. A response without
// content for its first choice is ErrEmptyCompletion.
func RequestCompletion(ctx context.Context, client llm.Client, s config.Settings, prompt string, img *EncodedImage) (*Completion, error) {
	resp, err := client.Chat(ctx, BuildRequest(s, prompt, img.DataURI))
	if err != nil {
		return nil, err
	}

	content := llm.FirstContent(resp)
	if content == nil || strings.TrimSpace(*content) == "" {
		return nil, ErrEmptyCompletion
	}

	return &Completion{Text: *content, Usage: resp.Usage}, nil
}
