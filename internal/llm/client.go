// In file: internal/llm/client.go
package llm

import (
	"context"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// =================================================================================
// Core Data Structures
// =================================================================================

// Role represents the originator of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation history.
// Assistant messages may carry ToolCalls (and empty Content); tool messages
// carry the ToolCallID and Name of the request they answer.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// Usage reports token accounting for one or more completions.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// GenerationConfig holds the parameters that control one generation.
type GenerationConfig struct {
	// The model identifier sent to the endpoint (e.g., "gpt-4o-mini").
	Model string
	// Controls randomness. Nil leaves the provider default in place.
	Temperature *float32
	// The maximum number of tokens to generate in the response.
	MaxTokens int
	// Nucleus sampling; nil leaves the provider default in place.
	TopP *float32
}

// GenerationResult holds the complete output of one completion call.
type GenerationResult struct {
	// The generated text content from the model. May be empty when ToolCalls is set.
	Content string
	// Tool invocations requested by the model, in the order it listed them.
	ToolCalls []*tools.ToolCall
	// Token usage statistics for the generation request.
	Usage Usage
}

// =================================================================================
// LLM Client Interface
// =================================================================================

// LLMClient is the interface every chat-completion backend implements.
type LLMClient interface {
	// Generate performs a blocking request to the LLM with the full conversation
	// history and returns one assistant turn. availableTools may be nil, in
	// which case the model is not offered any tools.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)
}
