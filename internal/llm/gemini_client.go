// In file: internal/llm/gemini_client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// GeminiClient is the client for Google's Gemini models.
type GeminiClient struct {
	client *genai.Client
}

var _ LLMClient = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. The model is chosen per request.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate performs a blocking request to the Gemini API. A fresh model handle
// is configured per call so concurrent callers never share tool settings.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if config == nil || config.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	model := c.client.GenerativeModel(config.Model)
	configureModel(model, config, availableTools)

	system, contents, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}
	if system != nil {
		model.SystemInstruction = system
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// configureModel applies generation settings using the SDK's setter methods.
func configureModel(model *genai.GenerativeModel, config *GenerationConfig, availableTools []tools.Tool) {
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.TopP != nil {
		model.SetTopP(*config.TopP)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}
	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	}
}

// toGeminiTools converts our tool descriptors to the SDK's format.
func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(toolsToConvert))
	for _, t := range toolsToConvert {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema converts our JSONSchema to the SDK's schema type. Numeric
// bounds have no counterpart and are folded into the description.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = convertSchema(*v)
		}
	}
	return out
}

// toGeminiContents converts the conversation into Gemini contents. The system
// message becomes the system instruction, consecutive tool results are merged
// into one turn of function responses, and the last content is the one to send.
func toGeminiContents(messages []Message) (*genai.Content, []*genai.Content, error) {
	var system *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}

		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})

		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: decodeArgs(tc.Function.Arguments)})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.Text(""))
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case RoleTool:
			part := genai.FunctionResponse{Name: msg.Name, Response: decodeResponse(msg.Content)}
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
		}
	}

	if len(contents) == 0 {
		return nil, nil, errors.New("conversation has no user content to send")
	}
	if contents[len(contents)-1].Role == "model" {
		return nil, nil, errors.New("conversation must not end with an assistant turn")
	}
	return system, contents, nil
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	_, ok := c.Parts[0].(genai.FunctionResponse)
	return ok
}

// decodeArgs parses a tool call's JSON arguments; invalid JSON yields an empty map.
func decodeArgs(arguments string) map[string]any {
	args := map[string]any{}
	if arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		log.Printf("Warning: could not decode tool call arguments for Gemini history: %v", err)
		return map[string]any{}
	}
	return args
}

// decodeResponse wraps tool output for a FunctionResponse. JSON objects are
// passed through, anything else is carried as {"content": text}.
func decodeResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"content": content}
}

// parseGeminiResponse converts a Gemini response into our GenerationResult.
// Gemini does not identify function calls, so each one is given a fresh id.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoChoices
	}

	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall

	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				log.Printf("Warning: could not marshal tool call args: %v", err)
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   "call_" + uuid.NewString(),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
