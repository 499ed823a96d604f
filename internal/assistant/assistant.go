package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"dashboard-sync-service/internal/config"
)

// CyberSystemPrompt frames the assistant on the cybersecurity dashboard.
const CyberSystemPrompt = "You are a concise cybersecurity analyst. Provide practical, safety-minded guidance. " +
	"When giving recommendations, be explicit about steps and risk considerations. " +
	"If asked about data, explain how to compute the metric from incident records."

// QuotaMessage is shown to users when the provider refuses for quota reasons.
const QuotaMessage = "Daily AI quota reached. Please try again tomorrow."

var (
	ErrNotConfigured = errors.New("assistant is not configured: missing API key")
	ErrQuotaExceeded = errors.New("assistant quota exceeded")
	ErrEmptyReply    = errors.New("assistant returned no reply")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Sender sends a conversation and returns the reply text.
type Sender interface {
	Send(ctx context.Context, conversation []Message) (string, error)
}

type Client struct {
	client openai.Client
	cfg    config.AssistantConfig
}

// New returns a client. Without an API key every Send fails with
// ErrNotConfigured.
func New(cfg config.AssistantConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.GetTimeout()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: openai.NewClient(opts...), cfg: cfg}
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) Send(ctx context.Context, conversation []Message) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation))
	for _, m := range conversation {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
		Temperature: openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || isQuota(apiErr.Code) || isQuota(apiErr.Message) {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		}
		return fmt.Errorf("assistant request failed (%d): %w", apiErr.StatusCode, err)
	}
	if isQuota(err.Error()) {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("assistant request failed: %w", err)
}

func isQuota(s string) bool {
	return strings.Contains(strings.ToLower(s), "quota")
}
