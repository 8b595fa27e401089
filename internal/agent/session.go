// In file: internal/agent/session.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/dileep-u-k/weather-agents/internal/console"
	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/tools"
)

const (
	greeting = "Weather Assistant: Hello! I can help you with weather information. Ask me about the weather anywhere!"
	hint     = "(Type 'exit' to end the conversation)"
	goodbye  = "\nWeather Assistant: Goodbye! Have a great day!"
)

var exitWords = map[string]struct{}{"exit": {}, "quit": {}, "bye": {}}

// IsExitCommand reports whether input ends an interactive session.
func IsExitCommand(input string) bool {
	_, ok := exitWords[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

// Session is a read-eval-print loop holding one growing conversation with a
// single variant.
type Session struct {
	orch    *Orchestrator
	variant Variant
	console *console.Console
}

func NewSession(orch *Orchestrator, variant Variant, con *console.Console) *Session {
	return &Session{orch: orch, variant: variant, console: con}
}

// Run reads user turns until an exit word or end of input. Model and tool
// failures are reported inline and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	s.console.Println(greeting)
	s.console.Printf("%s\n\n", hint)

	history := NewConversation(s.variant)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		input, err := s.console.Prompt("You: ")
		if errors.Is(err, io.EOF) {
			s.console.Println(goodbye)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if IsExitCommand(input) {
			s.console.Println(goodbye)
			return nil
		}
		if input == "" {
			continue
		}

		history = append(history, llm.Message{Role: llm.RoleUser, Content: input})
		next, stats, err := s.orch.Process(ctx, s.variant, history)
		if err != nil {
			log.Printf("❌ [%s] Conversation turn failed: %v", s.variant.ID, err)
			if len(next) == len(history) {
				// Nothing came back from the model; forget the question so
				// the next turn starts from a consistent history.
				history = history[:len(history)-1]
				s.console.Printf("\n%s%s%v\n\n", speaker, tools.ErrorPrefix, err)
				continue
			}
		} else {
			log.Printf("✅ [%s] Turn complete: %d tool call(s), %d tokens, %s", s.variant.ID, stats.ToolCalls, stats.Usage.TotalTokens, stats.Latency)
		}

		history = next
		if text, ok := RenderReply(history[len(history)-1]); ok {
			s.console.Println(text)
		}
	}
}
