package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicConfig configures the Anthropic-backed oracle client.
type AnthropicConfig struct {
	// APIKey overrides the ANTHROPIC_API_KEY environment variable.
	APIKey string
	// Model overrides the MENTOR_MODEL environment variable.
	Model string
	// MaxTokens caps each completion; 4096 when unset.
	MaxTokens int
}

// AnthropicClient is the production oracle. Sampling is pinned to
// temperature 0 so judgments and rewrites are reproducible across runs.
type AnthropicClient struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicClient builds an oracle client from config plus environment.
// Missing credentials are an immediate, fatal construction error rather than
// a deferred transport failure.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("oracle: API key not provided; set ANTHROPIC_API_KEY or pass APIKey")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("MENTOR_MODEL")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}, nil
}

// Complete implements [Client].
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
		Temperature: param.NewOpt(0.0),
		TopP:        param.NewOpt(1.0),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("anthropic message: empty response")
	}

	return sb.String(), nil
}
