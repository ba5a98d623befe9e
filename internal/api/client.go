// Package api talks to Claude, either directly or through AWS Bedrock.
package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// ErrNoAPIKey is returned when no API key is configured for the direct API.
var ErrNoAPIKey = errors.New("ANTHROPIC_API_KEY environment variable is not set")

// DefaultMaxTokens bounds a single completion.
const DefaultMaxTokens = 1024

// Client wraps the Anthropic SDK client with token accounting.
type Client struct {
	inner   anthropic.Client
	model   anthropic.Model
	bedrock bool
	usage   *Usage
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	// Model defaults to Claude Sonnet 4.
	Model anthropic.Model
	// APIKey falls back to ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through Bedrock using the default AWS credential chain.
	UseAWSBedrock bool
	AWSRegion     string
	AWSProfile    string
}

// NewClient creates a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, ErrNoAPIKey
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = BedrockModel(model)
	}

	return &Client{
		inner:   anthropic.NewClient(opts...),
		model:   model,
		bedrock: cfg.UseAWSBedrock,
		usage:   &Usage{},
	}, nil
}

// bedrockProfiles maps model names to Bedrock cross-region inference profiles.
var bedrockProfiles = map[anthropic.Model]string{
	anthropic.ModelClaudeSonnet4_20250514:         "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.Model("claude-sonnet-4-5-20250929"): "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	anthropic.Model("claude-haiku-4-5-20251001"):  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805:         "us.anthropic.claude-opus-4-1-20250805-v1:0",
	anthropic.ModelClaude3_5Haiku20241022:         "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

// BedrockModel returns the Bedrock inference profile for model.
// Unknown names are returned unchanged.
func BedrockModel(model anthropic.Model) anthropic.Model {
	if strings.HasPrefix(string(model), "us.anthropic") {
		return model
	}
	if profile, ok := bedrockProfiles[model]; ok {
		return anthropic.Model(profile)
	}
	return model
}

// Model returns the model requests are sent to.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Bedrock reports whether requests go through AWS Bedrock.
func (c *Client) Bedrock() bool {
	return c.bedrock
}

// Usage returns the token accounting for this client.
func (c *Client) Usage() *Usage {
	return c.usage
}

// Complete sends a single-turn request and returns the concatenated text reply.
func (c *Client) Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}
	c.usage.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), nil
}

// Usage accumulates token counts across calls.
type Usage struct {
	mu     sync.Mutex
	input  int64
	output int64
	calls  int
}

// Add records one call.
func (u *Usage) Add(input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.input += input
	u.output += output
	u.calls++
}

// Tokens returns the accumulated input and output tokens.
func (u *Usage) Tokens() (input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.input, u.output
}

// Calls returns the number of recorded calls.
func (u *Usage) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}
