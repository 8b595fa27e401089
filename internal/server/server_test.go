package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/weather-agents/internal/agent"
	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/llm/llmtest"
	"github.com/dileep-u-k/weather-agents/internal/tools"
	"github.com/dileep-u-k/weather-agents/internal/weather"
)

type stubWeather struct{}

func (stubWeather) Current(_ context.Context, location string) (*weather.Current, error) {
	return &weather.Current{Location: location, TemperatureC: 25}, nil
}

func (stubWeather) Forecast(_ context.Context, location string, _ int) (*weather.Forecast, error) {
	return &weather.Forecast{Location: location}, nil
}

func newTestEngine(t *testing.T, client llm.LLMClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	variants, err := agent.NewVariants(stubWeather{})
	require.NoError(t, err)
	return NewEngine(NewHandler(agent.NewOrchestrator(client, "m"), variants))
}

func do(engine http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newTestEngine(t, llmtest.NewClient()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestAgents(t *testing.T) {
	rec := do(newTestEngine(t, llmtest.NewClient()), http.MethodGet, "/api/v1/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents []AgentInfo `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Agents, 3)
	assert.Equal(t, "react", body.Agents[2].ID)
	assert.Contains(t, body.Agents[2].Tools, tools.SearchToolName)
}

func TestChatRunsToolRound(t *testing.T) {
	client := llmtest.NewClient(
		llmtest.Calls(llmtest.ToolCall("call_1", tools.CurrentWeatherToolName, `{"location":"Lisbon"}`)),
		llmtest.Text("25°C in Lisbon."),
	)
	rec := do(newTestEngine(t, client), http.MethodPost, "/api/v1/chat", `{"agent":"basic","query":"Lisbon?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "basic", resp.Agent)
	assert.Equal(t, "25°C in Lisbon.", resp.Response)
	assert.Equal(t, 1, resp.ToolCalls)
}

func TestChatRejectsBadInput(t *testing.T) {
	engine := newTestEngine(t, llmtest.NewClient())

	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPost, "/api/v1/chat", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPost, "/api/v1/chat", `{"agent":"basic"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPost, "/api/v1/chat", `{"agent":"wizard","query":"hi"}`).Code)
}

func TestChatModelFailureIsBadGateway(t *testing.T) {
	client := llmtest.NewClient(llmtest.Fail(errors.New("upstream down")))
	rec := do(newTestEngine(t, client), http.MethodPost, "/api/v1/chat", `{"agent":"cot","query":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream down")
}

func TestCompare(t *testing.T) {
	client := llmtest.NewClient(
		llmtest.Text("one"),
		llmtest.Fail(errors.New("boom")),
		llmtest.Text("three"),
	)
	rec := do(newTestEngine(t, client), http.MethodPost, "/api/v1/compare", `{"query":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "one", resp.Results[0].Response)
	assert.Contains(t, resp.Results[1].Error, "boom")
	assert.True(t, strings.HasPrefix(resp.Results[1].Response, tools.ErrorPrefix))
	assert.Equal(t, "three", resp.Results[2].Response)
	assert.NotEmpty(t, resp.RequestID)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
