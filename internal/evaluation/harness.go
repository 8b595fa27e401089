// In file: internal/evaluation/harness.go
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dileep-u-k/weather-agents/internal/agent"
	"github.com/dileep-u-k/weather-agents/internal/console"
	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// DefaultColumnWidth is the wrap width of each response column.
const DefaultColumnWidth = 40

// ErrEmptyQuery is returned when there is nothing to evaluate.
var ErrEmptyQuery = errors.New("query must not be empty")

// Result is the outcome of running one variant on a query.
type Result struct {
	Variant  agent.Variant
	Response string
	Stats    agent.RunStats
	Err      error
}

// RunAll sends query to every variant, one after another, each on a fresh
// conversation. A failed run keeps its place in the result with the error
// text as its response.
func RunAll(ctx context.Context, orch *agent.Orchestrator, variants []agent.Variant, query string) []Result {
	results := make([]Result, 0, len(variants))
	for _, variant := range variants {
		history := append(agent.NewConversation(variant), llm.Message{Role: llm.RoleUser, Content: query})
		out, stats, err := orch.Process(ctx, variant, history)

		res := Result{Variant: variant, Stats: stats, Err: err}
		if err != nil {
			log.Printf("❌ [%s] Evaluation run failed: %v", variant.ID, err)
			res.Response = tools.ErrorPrefix + err.Error()
		} else {
			res.Response = out[len(out)-1].Content
		}
		results = append(results, res)
	}
	return results
}

// Harness drives an interactive comparative evaluation on a console.
type Harness struct {
	orch        *agent.Orchestrator
	variants    []agent.Variant
	console     *console.Console
	log         *Log
	profiler    *agent.Profiler
	columnWidth int
	now         func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithColumnWidth sets the wrap width of the comparison table.
func WithColumnWidth(width int) Option {
	return func(h *Harness) {
		if width > 0 {
			h.columnWidth = width
		}
	}
}

// WithClock replaces time.Now for the record timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		h.now = now
	}
}

// WithProfiler stores every rating in the variant profiles as well.
func WithProfiler(p *agent.Profiler) Option {
	return func(h *Harness) {
		h.profiler = p
	}
}

func NewHarness(orch *agent.Orchestrator, variants []agent.Variant, con *console.Console, evalLog *Log, opts ...Option) *Harness {
	h := &Harness{
		orch:        orch,
		variants:    variants,
		console:     con,
		log:         evalLog,
		columnWidth: DefaultColumnWidth,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run evaluates query, prompting for it first when it is empty. Nothing is
// written to the log unless every variant receives a rating.
func (h *Harness) Run(ctx context.Context, query string) error {
	h.console.Println("=== Comparative Evaluation System ===")
	if query == "" {
		q, err := h.console.Prompt("Enter your query: ")
		if err != nil {
			return fmt.Errorf("failed to read query: %w", err)
		}
		query = q
	}
	if query == "" {
		return ErrEmptyQuery
	}

	runID := uuid.NewString()
	log.Printf("🧪 Evaluation %s started for %d variants", runID, len(h.variants))

	results := RunAll(ctx, h.orch, h.variants, query)

	labels := make([]string, len(results))
	responses := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.Variant.Label
		responses[i] = r.Response
	}
	h.console.Println("\n=== Comparative Evaluation ===")
	h.console.Println(RenderTable(labels, responses, h.columnWidth))

	ratings, err := h.collectRatings(results)
	if err != nil {
		return err
	}

	timestamp := h.now()
	records := make([]Record, len(results))
	for i, r := range results {
		records[i] = Record{
			Timestamp: timestamp,
			Query:     query,
			AgentType: r.Variant.Name,
			Response:  r.Response,
			Rating:    ratings[i],
		}
	}
	if err := h.log.Append(records); err != nil {
		return err
	}
	for i, r := range results {
		h.profiler.RecordRating(ctx, r.Variant.ID, ratings[i])
	}

	log.Printf("✅ Evaluation %s saved to %s", runID, h.log.Path())
	h.console.Printf("\nResults saved to %s.\n", h.log.Path())
	return nil
}

// collectRatings asks for one rating per result, re-asking until the answer
// is a whole number in range. End of input aborts the evaluation.
func (h *Harness) collectRatings(results []Result) ([]int, error) {
	h.console.Printf("\nPlease rate each response on a scale of %d-%d (1 = Poor, 5 = Excellent):\n", MinRating, MaxRating)

	ratings := make([]int, 0, len(results))
	for _, r := range results {
		label := fmt.Sprintf("Rate the %s's response: ", r.Variant.Label)
		for {
			answer, err := h.console.Prompt(label)
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("rating aborted: %w", err)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read rating: %w", err)
			}
			n, convErr := strconv.Atoi(answer)
			if convErr != nil || n < MinRating || n > MaxRating {
				h.console.Printf("Please enter a whole number between %d and %d.\n", MinRating, MaxRating)
				continue
			}
			ratings = append(ratings, n)
			break
		}
	}
	return ratings, nil
}
