package llm

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

func TestToGeminiContentsMergesToolResults(t *testing.T) {
	system, contents, err := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "be helpful"},
		{Role: RoleUser, Content: "Compare Paris and Rome"},
		{Role: RoleAssistant, ToolCalls: []*tools.ToolCall{
			{ID: "a", Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `{"location":"Paris"}`}},
			{ID: "b", Function: tools.ToolCallFunction{Name: "get_current_weather", Arguments: `{"location":"Rome"}`}},
		}},
		{Role: RoleTool, ToolCallID: "a", Name: "get_current_weather", Content: `{"location":"Paris","temperature_c":18}`},
		{Role: RoleTool, ToolCallID: "b", Name: "get_current_weather", Content: "Error: timeout"},
	})
	require.NoError(t, err)

	require.NotNil(t, system)
	assert.Equal(t, genai.Text("be helpful"), system.Parts[0])

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "Paris", call.Args["location"])

	require.Len(t, contents[2].Parts, 2, "consecutive tool results share one turn")
	first := contents[2].Parts[0].(genai.FunctionResponse)
	assert.Equal(t, "Paris", first.Response["location"])
	second := contents[2].Parts[1].(genai.FunctionResponse)
	assert.Equal(t, "Error: timeout", second.Response["content"])
}

func TestToGeminiContentsRejectsTrailingAssistant(t *testing.T) {
	_, _, err := toGeminiContents([]Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})
	require.Error(t, err)

	_, _, err = toGeminiContents([]Message{{Role: RoleSystem, Content: "only system"}})
	require.Error(t, err)
}

func TestParseGeminiResponseMintsToolCallIDs(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Let me check. "),
				genai.FunctionCall{Name: "get_weather_forecast", Args: map[string]any{"location": "Oslo", "days": 2}},
				genai.FunctionCall{Name: "get_weather_forecast", Args: map[string]any{"location": "Bergen"}},
			}},
		}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 4, TotalTokenCount: 7},
	}

	res, err := parseGeminiResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", res.Content)
	require.Len(t, res.ToolCalls, 2)
	assert.True(t, strings.HasPrefix(res.ToolCalls[0].ID, "call_"))
	assert.NotEqual(t, res.ToolCalls[0].ID, res.ToolCalls[1].ID)
	assert.JSONEq(t, `{"location":"Oslo","days":2}`, res.ToolCalls[0].Function.Arguments)
	assert.Equal(t, Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}, res.Usage)
}

func TestParseGeminiResponseEmpty(t *testing.T) {
	_, err := parseGeminiResponse(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestConvertSchemaKeepsRequiredAndTypes(t *testing.T) {
	def := tools.NewForecastTool(nil).Definition()
	s := convertSchema(def.Function.Parameters)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"location"}, s.Required)
	assert.Equal(t, genai.TypeInteger, s.Properties["days"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["location"].Type)
}
