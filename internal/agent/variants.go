// In file: internal/agent/variants.go

// Package agent holds the three prompting strategies compared by this tool,
// the conversation orchestrator that runs them against an LLM, and the
// interactive console session built on top.
package agent

import (
	"fmt"
	"strings"

	"github.com/dileep-u-k/weather-agents/internal/tools"
)

// VariantID names a prompting strategy.
type VariantID string

const (
	Basic          VariantID = "basic"
	ChainOfThought VariantID = "cot"
	ReAct          VariantID = "react"
)

// BasicSystemPrompt is the persona of the basic, tool-calling-only agent.
const BasicSystemPrompt = "You are a helpful weather assistant."

// ChainOfThoughtSystemPrompt asks for explicit step-by-step reasoning.
const ChainOfThoughtSystemPrompt = `You are a helpful assistant that can answer questions about weather and perform calculations.

When responding to complex questions, please follow these steps:
1. Think step-by-step about what information you need.
2. Break down the problem into smaller parts.
3. Use the appropriate tools to gather information.
4. Explain your reasoning clearly using plain text (no LaTeX or special formatting).
5. Provide a clear final answer.

For example, if someone asks about temperature differences between cities:
1. Fetch the current temperature for the first city.
2. Fetch the current temperature for the second city.
3. Calculate the difference between the two temperatures.
4. Show the step-by-step reasoning and provide the final answer.

Always ensure you gather all necessary data before providing the final answer.
`

// ReActSystemPrompt asks for interleaved Thought/Action/Observation steps.
const ReActSystemPrompt = `You are a helpful weather and information assistant that uses the ReAct (Reasoning and Acting) approach to solve problems.

When responding to questions, follow this pattern:
1. Thought: Think about what you need to know and what steps to take
2. Action: Use a tool to gather information (weather data, search, calculator)
3. Observation: Review what you learned from the tool
4. ... (repeat the Thought, Action, Observation steps as needed)
5. Final Answer: Provide your response based on all observations

For example:
User: What's the temperature difference between New York and London today?
Thought: I need to find the current temperatures in both New York and London, then calculate the difference.
Action: [Use get_current_weather for New York]
Observation: [Results from weather tool]
Thought: Now I need London's temperature.
Action: [Use get_current_weather for London]
Observation: [Results from weather tool]
Thought: Now I can calculate the difference.
Action: [Use calculator to subtract]
Observation: [Result of calculation]
Final Answer: The temperature difference between New York and London today is X degrees.

Always make your reasoning explicit and show your work.
`

// Variant pairs a system prompt with the tool set offered alongside it.
type Variant struct {
	ID VariantID
	// Name is the value written to the Agent Type column of the evaluation log.
	Name string
	// Label is the column header used when responses are shown side by side.
	Label        string
	SystemPrompt string
	Tools        *tools.Registry
}

// Variants is the fixed, read-only catalogue of strategies, built once at
// startup and shared by reference.
type Variants struct {
	ordered []Variant
}

// NewVariants builds the three escalating tool sets: basic holds the weather
// tools, chain-of-thought adds the calculator, ReAct adds search on top.
func NewVariants(provider tools.WeatherProvider) (*Variants, error) {
	basic, err := tools.NewRegistry(tools.NewCurrentWeatherTool(provider), tools.NewForecastTool(provider))
	if err != nil {
		return nil, fmt.Errorf("failed to build basic tool set: %w", err)
	}
	cot, err := basic.With(tools.NewCalculatorTool())
	if err != nil {
		return nil, fmt.Errorf("failed to build chain-of-thought tool set: %w", err)
	}
	react, err := cot.With(tools.NewSearchTool())
	if err != nil {
		return nil, fmt.Errorf("failed to build ReAct tool set: %w", err)
	}

	return &Variants{ordered: []Variant{
		{ID: Basic, Name: "Basic", Label: "Basic Agent", SystemPrompt: BasicSystemPrompt, Tools: basic},
		{ID: ChainOfThought, Name: "Chain of Thought", Label: "Chain of Thought Agent", SystemPrompt: ChainOfThoughtSystemPrompt, Tools: cot},
		{ID: ReAct, Name: "ReAct", Label: "ReAct Agent", SystemPrompt: ReActSystemPrompt, Tools: react},
	}}, nil
}

// All returns the variants in presentation order: basic, chain-of-thought, ReAct.
func (v *Variants) All() []Variant {
	return append([]Variant(nil), v.ordered...)
}

// Get returns the variant with the given id.
func (v *Variants) Get(id VariantID) (Variant, bool) {
	for _, variant := range v.ordered {
		if variant.ID == id {
			return variant, true
		}
	}
	return Variant{}, false
}

// ParseVariantID accepts an id, a menu number or a common spelling.
func ParseVariantID(s string) (VariantID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "basic":
		return Basic, nil
	case "2", "cot", "chain-of-thought", "chain of thought":
		return ChainOfThought, nil
	case "3", "react":
		return ReAct, nil
	}
	return "", fmt.Errorf("unknown agent type %q (want basic, cot or react)", s)
}
