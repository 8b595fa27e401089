// In file: internal/llm/llmtest/scripted.go

// Package llmtest provides LLMClient fakes for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// Step is one canned reply. Exactly one of Result and Err should be set.
type Step struct {
	Result *llm.GenerationResult
	Err    error
}

// Text is a step answering with plain content.
func Text(content string) Step {
	return Step{Result: &llm.GenerationResult{Content: content}}
}

// Calls is a step requesting the given tool calls.
func Calls(calls ...*tools.ToolCall) Step {
	return Step{Result: &llm.GenerationResult{ToolCalls: calls}}
}

// Fail is a step returning err.
func Fail(err error) Step {
	return Step{Err: err}
}

// ToolCall builds a function tool call.
func ToolCall(id, name, arguments string) *tools.ToolCall {
	return &tools.ToolCall{
		ID:       id,
		Type:     tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{Name: name, Arguments: arguments},
	}
}

// Request records one Generate call.
type Request struct {
	Messages []llm.Message
	Model    string
	Tools    []tools.Tool
}

// Client replays steps in order. When Respond is set it is used instead of
// the step list. Client is safe for concurrent use.
type Client struct {
	Respond func(req Request) (*llm.GenerationResult, error)

	mu       sync.Mutex
	steps    []Step
	requests []Request
}

var _ llm.LLMClient = (*Client)(nil)

// NewClient returns a client that answers with steps, one per call.
func NewClient(steps ...Step) *Client {
	return &Client{steps: steps}
}

// Generate implements llm.LLMClient.
func (c *Client) Generate(_ context.Context, messages []llm.Message, config *llm.GenerationConfig, availableTools []tools.Tool) (*llm.GenerationResult, error) {
	req := Request{
		Messages: append([]llm.Message(nil), messages...),
		Tools:    append([]tools.Tool(nil), availableTools...),
	}
	if config != nil {
		req.Model = config.Model
	}

	c.mu.Lock()
	c.requests = append(c.requests, req)
	respond := c.Respond
	var step Step
	var ok bool
	if respond == nil && len(c.steps) > 0 {
		step, c.steps, ok = c.steps[0], c.steps[1:], true
	}
	n := len(c.requests)
	c.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	if !ok {
		return nil, fmt.Errorf("llmtest: no scripted reply for call %d", n)
	}
	return step.Result, step.Err
}

// Requests returns every call received so far.
func (c *Client) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

// ToolNames lists the names of the tools offered in a request.
func (r Request) ToolNames() []string {
	names := make([]string, 0, len(r.Tools))
	for _, t := range r.Tools {
		names = append(names, t.Function.Name)
	}
	return names
}
