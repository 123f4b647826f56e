package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/transcript"
)

// OpenAIClient implements CompletionStreamer using OpenAI's streaming
// chat completions API. Safe for concurrent use by many sessions.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a new OpenAI completion client
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		model:     cfg.OpenAIModel,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete streams one chat completion over the transcript, invoking
// onToken for every chunk as it arrives
func (c *OpenAIClient) Complete(ctx context.Context, turns []transcript.Turn, onToken TokenCallback) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case transcript.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case transcript.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var acc strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		if onToken != nil {
			onToken(token)
		}
		acc.WriteString(token)
	}

	if err := stream.Err(); err != nil {
		return acc.String(), fmt.Errorf("completion stream: %w", err)
	}

	return acc.String(), nil
}
