package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessager is the subset of the Anthropic SDK client we use.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClientCreator builds the SDK client. Tests swap it for a mock.
type AnthropicClientCreator func(apiKey string, httpTimeout time.Duration) AnthropicMessager

func defaultAnthropicCreator(apiKey string, httpTimeout time.Duration) AnthropicMessager {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		// The SDK retries by default; a details action is one request.
		option.WithMaxRetries(0),
	)
	return &client.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// AnthropicClient adapts the Messages API to Runtime.
type AnthropicClient struct {
	messages AnthropicMessager
}

func NewAnthropicClient(apiKey string, httpTimeout time.Duration) (*AnthropicClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	return &AnthropicClient{messages: newAnthropicClient(apiKey, httpTimeout)}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 300
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &GenerateResponse{
		ID:      msg.ID,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: strings.Join(parts, "")}}},
		Usage:   Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

func classifyAnthropicError(err error) error {
	var sdkErr *anthropic.Error
	if !errors.As(err, &sdkErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &UnreachableError{Host: "api.anthropic.com", Err: err}
	}
	// sdkErr.Error() dereferences Request and Response, which may be unset.
	apiErr := &APIError{StatusCode: sdkErr.StatusCode, Message: sdkErr.RawJSON(), RequestID: sdkErr.RequestID}
	header := http.Header{}
	if sdkErr.Response != nil {
		header = sdkErr.Response.Header
	}
	return classifyAPIError(apiErr, header)
}
