package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	_, err := NewAnthropicClient("", "")
	require.Error(t, err)
}

func TestAnthropicGenerateParsesToolUse(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))

		fmt.Fprint(w, `{
			"content": [
				{"type": "text", "text": "Let me check. "},
				{"type": "tool_use", "id": "toolu_1", "name": "get_current_weather", "input": {"location": "Paris"}}
			],
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`)
	}))
	defer server.Close()

	client, err := NewAnthropicClient("ak-test", server.URL+"/v1")
	require.NoError(t, err)

	weatherTool := tools.Tool{Type: tools.ToolTypeFunction, Function: tools.Function{
		Name:        "get_current_weather",
		Description: "Current weather",
		Parameters:  tools.JSONSchema{Type: "object", Required: []string{"location"}},
	}}
	res, err := client.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a helpful weather assistant."},
		{Role: RoleUser, Content: "Weather in Paris?"},
	}, &GenerationConfig{Model: "claude-test"}, []tools.Tool{weatherTool})
	require.NoError(t, err)

	assert.Equal(t, "claude-test", captured.Model)
	assert.Equal(t, "You are a helpful weather assistant.", captured.System)
	assert.Equal(t, anthropicDefaultMaxTokens, captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "get_current_weather", captured.Tools[0].Name)
	assert.Equal(t, "object", captured.Tools[0].InputSchema.Type)

	assert.Equal(t, "Let me check.", res.Content)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "toolu_1", res.ToolCalls[0].ID)
	assert.Equal(t, "get_current_weather", res.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"location":"Paris"}`, res.ToolCalls[0].Function.Arguments)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}, res.Usage)
}

func TestToAnthropicMessagesGroupsToolResults(t *testing.T) {
	system, msgs := toAnthropicMessages([]Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "Paris and Rome?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "a", Type: tools.ToolTypeFunction, Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `{"location":"Paris"}`}},
			{ID: "b", Type: tools.ToolTypeFunction, Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `not json`}},
		}},
		{Role: RoleTool, ToolCallID: "a", Name: "get_current_weather", Content: "sunny"},
		{Role: RoleTool, ToolCallID: "b", Name: "get_current_weather", Content: "Error: bad arguments"},
	})

	assert.Equal(t, "sys", system)
	require.Len(t, msgs, 3)

	assistant := msgs[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.Content, 2)
	assert.Equal(t, "tool_use", assistant.Content[0].Type)
	assert.JSONEq(t, `{"location":"Paris"}`, string(assistant.Content[0].Input))
	assert.JSONEq(t, `{}`, string(assistant.Content[1].Input))

	results := msgs[2]
	assert.Equal(t, "user", results.Role)
	require.Len(t, results.Content, 2)
	assert.Equal(t, "a", results.Content[0].ToolUseID)
	assert.Equal(t, "b", results.Content[1].ToolUseID)
	assert.Equal(t, "Error: bad arguments", results.Content[1].Content)
}

func TestAnthropicServerErrorIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer server.Close()

	client, err := NewAnthropicClient("ak-test", server.URL, WithMaxAttempts(2))
	require.NoError(t, err)

	res, err := client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAnthropicEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer server.Close()

	client, err := NewAnthropicClient("ak-test", server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestToAnthropicMessagesSkipsEmptyAssistantTurn(t *testing.T) {
	_, msgs := toAnthropicMessages([]Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleUser, Content: "again"},
	})

	require.Len(t, msgs, 1, "the user turns are merged once the empty reply is dropped")
	assert.Equal(t, "user", msgs[0].Role)
	require.Len(t, msgs[0].Content, 2)
	assert.Equal(t, "hi", msgs[0].Content[0].Text)
	assert.Equal(t, "again", msgs[0].Content[1].Text)

	raw, err := json.Marshal(msgs)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `{"type":"text"}`)
}

func TestAnthropicFinalCallDeclaresToolsFromHistory(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"Sunny in Paris."}],"usage":{"input_tokens":30,"output_tokens":4}}`)
	}))
	defer server.Close()

	client, err := NewAnthropicClient("ak-test", server.URL)
	require.NoError(t, err)

	history := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "Weather in Paris?"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "toolu_1", Type: tools.ToolTypeFunction, Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `{"location":"Paris"}`}},
			{ID: "toolu_2", Type: tools.ToolTypeFunction, Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `{"location":"Lyon"}`}},
		}},
		{Role: RoleTool, ToolCallID: "toolu_1", Name: "get_current_weather", Content: "sunny"},
		{Role: RoleTool, ToolCallID: "toolu_2", Name: "get_current_weather", Content: "cloudy"},
	}
	res, err := client.Generate(context.Background(), history, &GenerationConfig{Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sunny in Paris.", res.Content)

	toolsSent, ok := captured["tools"].([]interface{})
	require.True(t, ok, "tools must be declared while the history holds tool_use blocks")
	require.Len(t, toolsSent, 1)
	assert.Equal(t, "get_current_weather", toolsSent[0].(map[string]interface{})["name"])
	assert.Equal(t, map[string]interface{}{"type": "none"}, captured["tool_choice"])
}

func TestAnthropicPlainCallSendsNoTools(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello"}]}`)
	}))
	defer server.Close()

	client, err := NewAnthropicClient("ak-test", server.URL)
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, &GenerationConfig{Model: "m"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, captured, "tools")
	assert.NotContains(t, captured, "tool_choice")
}
