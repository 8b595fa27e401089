// In file: internal/agent/orchestrator.go
package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// =================================================================================
// Conversation Orchestrator
// =================================================================================
// One call to Process is a single-round protocol:
//
//	AWAITING_MODEL     send history + the variant's tools, append the assistant turn
//	DISPATCHING_TOOLS  run each requested tool in order, append one tool message per
//	                   request, then ask the model once more without tools
//	DONE               return the grown history
//
// Tool calls requested by the second response are not dispatched.
// =================================================================================

type state int

const (
	stateAwaitingModel state = iota
	stateDispatchingTools
	stateDone
)

// RunStats describes one Process call.
type RunStats struct {
	ModelCalls int
	ToolCalls  int
	ToolErrors int
	Usage      llm.Usage
	Latency    time.Duration
}

// Orchestrator drives conversations against an LLM client. It keeps no
// per-conversation state, so one instance serves every variant and session.
type Orchestrator struct {
	client   llm.LLMClient
	config   llm.GenerationConfig
	profiler *Profiler
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProfiler records run statistics per variant.
func WithProfiler(p *Profiler) Option {
	return func(o *Orchestrator) {
		o.profiler = p
	}
}

// WithTemperature fixes the sampling temperature for every call.
func WithTemperature(t float32) Option {
	return func(o *Orchestrator) {
		o.config.Temperature = &t
	}
}

// NewOrchestrator creates an orchestrator that talks to client using model.
func NewOrchestrator(client llm.LLMClient, model string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		config: llm.GenerationConfig{Model: model},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewConversation starts a history with the variant's system message.
func NewConversation(variant Variant) []llm.Message {
	return []llm.Message{{Role: llm.RoleSystem, Content: variant.SystemPrompt}}
}

// Process runs one request/response/tool-dispatch/final-response cycle over
// messages and returns the extended history. The input slice is not modified.
//
// If the first model call fails the history is returned as given. If the
// second call fails the history still contains the assistant turn and every
// tool result, so callers can show what was gathered.
func (o *Orchestrator) Process(ctx context.Context, variant Variant, messages []llm.Message) ([]llm.Message, RunStats, error) {
	start := time.Now()
	history := append([]llm.Message(nil), messages...)
	var stats RunStats
	var runErr error

	defer func() {
		stats.Latency = time.Since(start)
		o.profiler.RecordRun(ctx, variant.ID, stats, runErr)
	}()

	var pending []*tools.ToolCall
	st := stateAwaitingModel
	for st != stateDone {
		switch st {
		case stateAwaitingModel:
			res, err := o.generate(ctx, history, toolDefinitions(variant.Tools), &stats)
			if err != nil {
				runErr = fmt.Errorf("model call failed: %w", err)
				return history, stats, runErr
			}
			history = append(history, llm.Message{
				Role:      llm.RoleAssistant,
				Content:   res.Content,
				ToolCalls: res.ToolCalls,
			})
			if len(res.ToolCalls) == 0 {
				st = stateDone
				continue
			}
			pending = res.ToolCalls
			st = stateDispatchingTools

		case stateDispatchingTools:
			for _, call := range pending {
				history = append(history, o.dispatch(ctx, variant.Tools, call, &stats))
			}

			res, err := o.generate(ctx, history, nil, &stats)
			if err != nil {
				runErr = fmt.Errorf("final model call failed: %w", err)
				return history, stats, runErr
			}
			if len(res.ToolCalls) > 0 {
				log.Printf("⚠️ [%s] Model requested %d more tool call(s) after the dispatch round; ignoring.", variant.ID, len(res.ToolCalls))
			}
			history = append(history, llm.Message{Role: llm.RoleAssistant, Content: res.Content})
			st = stateDone
		}
	}
	return history, stats, nil
}

func (o *Orchestrator) generate(ctx context.Context, history []llm.Message, defs []tools.Tool, stats *RunStats) (*llm.GenerationResult, error) {
	cfg := o.config
	stats.ModelCalls++
	res, err := o.client.Generate(ctx, history, &cfg, defs)
	if err != nil {
		return nil, err
	}
	stats.Usage.Add(res.Usage)
	return res, nil
}

// dispatch runs one tool call and always produces a tool message. Unknown
// tools, malformed arguments, tool errors and panics all become error text
// tagged with the originating call id.
func (o *Orchestrator) dispatch(ctx context.Context, registry *tools.Registry, call *tools.ToolCall, stats *RunStats) (msg llm.Message) {
	stats.ToolCalls++
	msg = llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Name: call.Function.Name}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Tool %s panicked: %v", call.Function.Name, r)
			stats.ToolErrors++
			msg.Content = fmt.Sprintf("%stool %s failed: %v", tools.ErrorPrefix, call.Function.Name, r)
		}
	}()

	log.Printf("🛠️ Executing tool: %s (ID: %s) with args: %s", call.Function.Name, call.ID, call.Function.Arguments)
	if registry == nil {
		stats.ToolErrors++
		msg.Content = fmt.Sprintf("%sno tools are available (requested %s)", tools.ErrorPrefix, call.Function.Name)
		return msg
	}

	result, err := registry.Execute(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		log.Printf("❌ Tool %s failed: %v", call.Function.Name, err)
		stats.ToolErrors++
		msg.Content = fmt.Sprintf("%sexecuting tool %s: %v", tools.ErrorPrefix, call.Function.Name, err)
		return msg
	}
	msg.Content = result
	return msg
}

func toolDefinitions(registry *tools.Registry) []tools.Tool {
	if registry == nil || registry.ToolCount() == 0 {
		return nil
	}
	return registry.Definitions()
}
