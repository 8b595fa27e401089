// In file: internal/llm/anthropic_client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

const (
	// DefaultAnthropicBaseURL is used when no base URL is configured for the
	// anthropic provider.
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"

	// The Messages API requires max_tokens on every request.
	anthropicDefaultMaxTokens = 1024
)

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	TopP        *float32           `json:"top_p,omitempty"`
	ToolChoice  *anthropicChoice   `json:"tool_choice,omitempty"`
}

type anthropicChoice struct {
	Type string `json:"type"`
}

// anthropicMessage always carries content blocks so text, tool_use and
// tool_result turns share one shape.
type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicTool struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema tools.JSONSchema `json:"input_schema"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	transport
	apiKey   string
	endpoint string
}

var _ LLMClient = (*AnthropicClient)(nil)

// NewAnthropicClient creates a client for the messages endpoint under baseURL.
func NewAnthropicClient(apiKey, baseURL string, opts ...ClientOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key cannot be empty")
	}
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &AnthropicClient{
		transport: newTransport(opts),
		apiKey:    apiKey,
		endpoint:  strings.TrimRight(baseURL, "/") + "/messages",
	}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, messages []Message, config *GenerationConfig, availableTools []tools.Tool) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build anthropic request payload: %w", err)
	}
	respBody, err := c.postWithRetry(ctx, "anthropic messages", func() (*http.Request, error) {
		return c.createRequest(ctx, payload)
	})
	if err != nil {
		return nil, err
	}
	return parseAnthropicResponse(respBody)
}

func (c *AnthropicClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	if config == nil || config.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	system, msgs := toAnthropicMessages(messages)
	req := anthropicRequest{
		Model:       config.Model,
		Messages:    msgs,
		System:      system,
		Tools:       toAnthropicTools(availableTools),
		MaxTokens:   anthropicDefaultMaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	// A history holding tool_use blocks must declare those tools even when
	// the caller offers none; declare them and forbid further calls.
	if len(req.Tools) == 0 {
		if used := toolsUsedIn(msgs); len(used) > 0 {
			req.Tools = used
			req.ToolChoice = &anthropicChoice{Type: "none"}
		}
	}
	return json.Marshal(req)
}

// toAnthropicMessages lifts system turns into the top-level system prompt and
// folds consecutive tool results into a single user turn, which is how the
// Messages API expects the answers to one batch of tool_use blocks. Adjacent
// user turns are merged so roles keep alternating.
func toAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	var system []string
	var out []anthropicMessage
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleTool:
			block := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
			}
			if n := len(out); n > 0 && out[n-1].Role == string(RoleUser) && isToolResultTurn(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropicMessage{Role: string(RoleUser), Content: []anthropicContentBlock{block}})
		case RoleAssistant:
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Function.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Function.Name,
					Input: input,
				})
			}
			// Empty text blocks are rejected by the API; an assistant turn
			// with nothing to say is left out.
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropicMessage{Role: string(RoleAssistant), Content: blocks})
		default:
			block := anthropicContentBlock{Type: "text", Text: msg.Content}
			if n := len(out); n > 0 && out[n-1].Role == string(RoleUser) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropicMessage{Role: string(RoleUser), Content: []anthropicContentBlock{block}})
		}
	}
	return strings.Join(system, "\n\n"), out
}

// toolsUsedIn declares every tool named by a tool_use block, in first-use
// order, with an open object schema.
func toolsUsedIn(msgs []anthropicMessage) []anthropicTool {
	var out []anthropicTool
	seen := make(map[string]bool)
	for _, m := range msgs {
		for _, b := range m.Content {
			if b.Type != "tool_use" || seen[b.Name] {
				continue
			}
			seen[b.Name] = true
			out = append(out, anthropicTool{Name: b.Name, InputSchema: tools.JSONSchema{Type: "object"}})
		}
	}
	return out
}

func isToolResultTurn(m anthropicMessage) bool {
	for _, b := range m.Content {
		if b.Type != "tool_result" {
			return false
		}
	}
	return len(m.Content) > 0
}

func toAnthropicTools(available []tools.Tool) []anthropicTool {
	if len(available) == 0 {
		return nil
	}
	out := make([]anthropicTool, 0, len(available))
	for _, t := range available {
		out = append(out, anthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		})
	}
	return out
}

func parseAnthropicResponse(body []byte) (*GenerationResult, error) {
	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal anthropic response: %w", err)
	}
	if len(anthropicResp.Content) == 0 {
		return nil, ErrNoChoices
	}
	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall
	for _, block := range anthropicResp.Content {
		switch block.Type {
		case "text":
			contentBuilder.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   block.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      block.Name,
					Arguments: args,
				},
			})
		}
	}

	return &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
		Usage: Usage{
			PromptTokens:     anthropicResp.Usage.InputTokens,
			CompletionTokens: anthropicResp.Usage.OutputTokens,
			TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
		},
	}, nil
}

func (c *AnthropicClient) createRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")
	return req, nil
}
