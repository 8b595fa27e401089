// In file: internal/tools/types.go

// Package tools defines the function-calling vocabulary shared by the weather
// agents: the descriptors sent *to* the model, the invocation requests that come
// back *from* it, and the small set of local capabilities (weather, calculator,
// search) the orchestrator can dispatch to.
package tools

import "encoding/json"

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// ErrorPrefix marks tool output that describes a failure. Anything starting with
// it is displayable, non-fatal content for both the model and the console.
const ErrorPrefix = "Error: "

// Tool defines the schema for a function that can be described to an LLM.
type Tool struct {
	// Type specifies the type of tool, which is always "function" here.
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function defines the name, description, and parameters of a callable tool.
type Function struct {
	// Name is unique within a Registry (e.g., "get_current_weather").
	Name string `json:"name"`
	// Description is what the model reads when deciding whether to call the tool.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts, structured as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a type-safe subset of JSON Schema, enough to describe tool
// parameters. The same document is used to validate arguments before dispatch.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
}

// ToolCall represents a request *from* the LLM to execute a specific tool with given arguments.
type ToolCall struct {
	// ID correlates the tool-role result message with this request.
	ID string `json:"id"`
	// Type is always "function".
	Type string `json:"type"`
	// Function contains the name and the JSON-encoded arguments.
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and arguments of a function call requested by the LLM.
type ToolCallFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON string produced by the model; it is not guaranteed to be valid.
	Arguments string `json:"arguments"`
}

// NewFunctionTool is a helper function that simplifies the creation of a new Tool.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// bound returns a pointer for the Minimum/Maximum schema fields.
func bound(v float64) *float64 {
	return &v
}

// schemaDocument renders the parameter schema as a JSON document.
func (s JSONSchema) schemaDocument() ([]byte, error) {
	return json.Marshal(s)
}
