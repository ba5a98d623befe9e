package api

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithAPIKey(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key-123"})
	require.NoError(t, err)

	assert.Equal(t, anthropic.ModelClaudeSonnet4_20250514, client.Model())
	assert.False(t, client.Bedrock())
	assert.NotNil(t, client.Usage())
}

func TestNewClientWithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{Model: anthropic.Model("claude-haiku-4-5-20251001")})
	require.NoError(t, err)
	assert.Equal(t, anthropic.Model("claude-haiku-4-5-20251001"), client.Model())
}

func TestNewClientNoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBedrockModel(t *testing.T) {
	tests := []struct {
		in   anthropic.Model
		want anthropic.Model
	}{
		{anthropic.ModelClaudeSonnet4_20250514, "us.anthropic.claude-sonnet-4-20250514-v1:0"},
		{"us.anthropic.custom-v1:0", "us.anthropic.custom-v1:0"},
		{"my-model", "my-model"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BedrockModel(tt.in))
	}
}

func TestUsage(t *testing.T) {
	u := &Usage{}
	u.Add(10, 5)
	u.Add(1, 2)

	in, out := u.Tokens()
	assert.Equal(t, int64(11), in)
	assert.Equal(t, int64(7), out)
	assert.Equal(t, 2, u.Calls())
}
