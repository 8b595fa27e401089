// In file: internal/llm/openai_client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// openAIRequest defines the top-level structure of a chat completion call.
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
}

// openAIMessage represents a single message in a conversation. Content is a
// pointer because assistant turns that only request tools carry a null content.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// openAITool defines the structure for a tool that the API can use.
type openAITool struct {
	Type     string         `json:"type"`
	Function tools.Function `json:"function"`
}

// openAIResponse is the structure of a successful response from the API.
type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// OpenAIClient talks to any endpoint implementing the OpenAI chat completions
// API, including the tool-use extension. The base URL is configurable so the
// same client serves OpenAI itself and compatible gateways.
type OpenAIClient struct {
	transport
	apiKey   string
	endpoint string
}

// Statically verify that OpenAIClient implements the LLMClient interface.
var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the chat completions endpoint under baseURL.
// The model is specified per request via GenerationConfig.
func NewOpenAIClient(apiKey, baseURL string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("LLM API key cannot be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAIClient{
		transport: newTransport(opts),
		apiKey:    apiKey,
		endpoint:  strings.TrimRight(baseURL, "/") + "/chat/completions",
	}, nil
}

// Generate performs a blocking request to the chat completions endpoint.
func (c *OpenAIClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	payload, err := c.buildRequestPayload(messages, config, availableTools)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat completion payload: %w", err)
	}

	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err // The error from doRequest is already descriptive.
	}

	return parseOpenAIResponse(respBody)
}

// buildRequestPayload constructs the JSON body for the API call.
func (c *OpenAIClient) buildRequestPayload(messages []Message, config *GenerationConfig, availableTools []tools.Tool) ([]byte, error) {
	if config == nil || config.Model == "" {
		return nil, errors.New("model identifier is required")
	}

	req := openAIRequest{
		Model:    config.Model,
		Messages: toOpenAIMessages(messages),
		Tools:    toOpenAITools(availableTools),
	}
	if config.MaxTokens > 0 {
		req.MaxTokens = config.MaxTokens
	}
	req.Temperature = config.Temperature
	req.TopP = config.TopP

	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}

	return json.Marshal(req)
}

// doRequest performs the HTTP call with the shared retry policy.
func (c *OpenAIClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	return c.postWithRetry(ctx, "chat completion", func() (*http.Request, error) {
		return c.createRequest(ctx, bytes.NewReader(payload))
	})
}

// createRequest is a helper to build the common parts of an http.Request.
func (c *OpenAIClient) createRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// toOpenAIMessages converts our internal message slice to the API format.
func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		m := openAIMessage{Role: string(msg.Role)}
		content := msg.Content

		switch msg.Role {
		case RoleTool:
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
			m.Content = &content
		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				m.ToolCalls = make([]tools.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					m.ToolCalls[i] = *tc
				}
				if content != "" {
					m.Content = &content
				}
			} else {
				m.Content = &content
			}
		default: // RoleUser and RoleSystem
			m.Content = &content
		}
		out = append(out, m)
	}
	return out
}

// toOpenAITools converts our internal tool slice to the API format.
func toOpenAITools(availableTools []tools.Tool) []openAITool {
	if len(availableTools) == 0 {
		return nil
	}
	out := make([]openAITool, 0, len(availableTools))
	for _, tool := range availableTools {
		out = append(out, openAITool{
			Type:     tools.ToolTypeFunction,
			Function: tool.Function,
		})
	}
	return out
}

// parseOpenAIResponse converts a full API response to our internal GenerationResult.
func parseOpenAIResponse(body []byte) (*GenerationResult, error) {
	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat completion response: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := openAIResp.Choices[0]
	result := &GenerationResult{Usage: openAIResp.Usage}
	if choice.Message.Content != nil {
		result.Content = *choice.Message.Content
	}

	if len(choice.Message.ToolCalls) > 0 {
		result.ToolCalls = make([]*tools.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, &tools.ToolCall{
				ID:   tc.ID,
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return result, nil
}
