// In file: internal/tools/executor.go
package tools

import "context"

// ToolExecutor defines the standard interface for any tool that can be
// dispatched by the conversation orchestrator.
type ToolExecutor interface {
	// Definition returns the tool's descriptor, which is provided to the LLM
	// so it understands the tool's capabilities, name, and arguments.
	Definition() Tool

	// Execute runs the tool. It receives the arguments as the raw JSON string
	// generated by the model and returns the string that becomes the content
	// of the tool-role message. Recoverable failures (unknown location, bad
	// expression) are returned as ErrorPrefix strings with a nil error.
	Execute(ctx context.Context, arguments string) (string, error)
}

// errorResult formats a failure as displayable tool output.
func errorResult(msg string) string {
	return ErrorPrefix + msg
}
