package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/nachoal/image-prompt-go/llm"
)

const (
	defaultModel = "gpt-4-vision-preview"
	userAgent    = "image-prompt-go/1.0"
)

// ErrMissingAPIKey is returned when neither the options nor the environment
// supply a key
var ErrMissingAPIKey = errors.New("OpenAI API key not provided")

// Client implements llm.Client on top of the official OpenAI SDK
type Client struct {
	options llm.ClientOptions
	client  sdk.Client
}

// NewClient creates a new OpenAI client
func NewClient(opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}

	for _, opt := range opts {
		opt(&options)
	}

	// Get API key from environment if not provided
	if options.APIKey == "" {
		options.APIKey = os.Getenv("OPENAI_API_KEY")
		if options.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(options.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(options.MaxRetries),
		option.WithHeader("User-Agent", userAgent),
	}
	if options.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.Organization != "" {
		requestOpts = append(requestOpts, option.WithOrganization(options.Organization))
	}
	for k, v := range options.Headers {
		requestOpts = append(requestOpts, option.WithHeader(k, v))
	}

	return &Client{
		options: options,
		client:  sdk.NewClient(requestOpts...),
	}, nil
}

// Chat sends a single chat-completion request
func (c *Client) Chat(ctx context.Context, request *llm.ChatRequest) (*llm.ChatResponse, error) {
	if request == nil {
		return nil, fmt.Errorf("request is required")
	}
	if request.Model == "" {
		request.Model = c.options.DefaultModel
	}

	params, err := buildParams(request)
	if err != nil {
		return nil, err
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	if completion == nil {
		return nil, fmt.Errorf("OpenAI returned an empty response")
	}

	response := &llm.ChatResponse{
		ID:      completion.ID,
		Model:   completion.Model,
		Choices: make([]llm.Choice, 0, len(completion.Choices)),
		Usage: &llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	for _, choice := range completion.Choices {
		out := llm.Choice{
			Index:        int(choice.Index),
			FinishReason: string(choice.FinishReason),
		}
		if choice.Message.JSON.Content.Valid() {
			out.Content = llm.StringPtr(choice.Message.Content)
		}
		response.Choices = append(response.Choices, out)
	}

	return response, nil
}

// Close cleans up resources
func (c *Client) Close() error {
	// Nothing to clean up for HTTP client
	return nil
}

// buildParams converts the provider-neutral request into SDK params
func buildParams(request *llm.ChatRequest) (sdk.ChatCompletionNewParams, error) {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(request.Messages))
	for i, msg := range request.Messages {
		switch msg.Role {
		case llm.RoleSystem:
			messages = append(messages, sdk.SystemMessage(msg.Text()))
		case llm.RoleAssistant:
			messages = append(messages, sdk.AssistantMessage(msg.Text()))
		case llm.RoleUser:
			parts, err := userParts(msg.Content)
			if err != nil {
				return sdk.ChatCompletionNewParams{}, fmt.Errorf("message %d: %w", i, err)
			}
			messages = append(messages, sdk.UserMessage(parts))
		default:
			return sdk.ChatCompletionNewParams{}, fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(request.Model),
		Messages: messages,
	}
	if request.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(request.MaxTokens))
	}
	return params, nil
}

func userParts(content []llm.ContentPart) ([]sdk.ChatCompletionContentPartUnionParam, error) {
	parts := make([]sdk.ChatCompletionContentPartUnionParam, 0, len(content))
	for _, p := range content {
		switch p.Type {
		case llm.PartText:
			parts = append(parts, sdk.TextContentPart(p.Text))
		case llm.PartImageURL:
			if p.ImageURL == nil || p.ImageURL.URL == "" {
				return nil, fmt.Errorf("image part without url")
			}
			parts = append(parts, sdk.ImageContentPart(sdk.ChatCompletionContentPartImageImageURLParam{
				URL: p.ImageURL.URL,
			}))
		default:
			return nil, fmt.Errorf("unsupported content part %q", p.Type)
		}
	}
	return parts, nil
}

// APIError is a non-2xx answer from the completions endpoint
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("OpenAI API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("OpenAI API error (status %d)", e.StatusCode)
}

func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.Message),
		}
	}
	return fmt.Errorf("OpenAI request failed: %w", err)
}
