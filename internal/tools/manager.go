// In file: internal/tools/manager.go
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnknownTool is returned when the model asks for a tool the registry does not hold.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is an immutable, ordered set of tools. Definitions are reported in
// registration order so the descriptor list sent to the model is stable.
// Registries are composed with With, never mutated, which makes them safe to
// share between conversations.
type Registry struct {
	order []string
	tools map[string]registeredTool
}

type registeredTool struct {
	executor ToolExecutor
	schema   *jsonschema.Schema
}

// NewRegistry builds a registry from the given tools. Tool names must be unique.
func NewRegistry(executors ...ToolExecutor) (*Registry, error) {
	r := &Registry{tools: make(map[string]registeredTool, len(executors))}
	if err := r.add(executors...); err != nil {
		return nil, err
	}
	return r, nil
}

// With returns a new registry holding every tool of r followed by executors.
// The receiver is left untouched.
func (r *Registry) With(executors ...ToolExecutor) (*Registry, error) {
	next := &Registry{
		order: append([]string(nil), r.order...),
		tools: make(map[string]registeredTool, len(r.tools)+len(executors)),
	}
	for name, t := range r.tools {
		next.tools[name] = t
	}
	if err := next.add(executors...); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *Registry) add(executors ...ToolExecutor) error {
	for _, executor := range executors {
		if executor == nil {
			return errors.New("tool must not be nil")
		}
		def := executor.Definition()
		name := def.Function.Name
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("tool %q is already registered", name)
		}
		schema, err := compileParameters(def.Function.Parameters)
		if err != nil {
			return fmt.Errorf("invalid parameter schema for tool %q: %w", name, err)
		}
		r.tools[name] = registeredTool{executor: executor, schema: schema}
		r.order = append(r.order, name)
	}
	return nil
}

// Definitions returns the descriptor of every registered tool, in registration order.
func (r *Registry) Definitions() []Tool {
	defs := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].executor.Definition())
	}
	return defs
}

// Names returns the registered tool names, in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	return len(r.order)
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Execute runs a tool by name. The raw argument string is parsed and validated
// against the tool's parameter schema before the tool sees it, so a malformed
// payload never reaches the implementation.
func (r *Registry) Execute(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(arguments), &decoded); err != nil {
		return "", fmt.Errorf("invalid JSON arguments for %s: %w", name, err)
	}
	if err := tool.schema.Validate(decoded); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return tool.executor.Execute(ctx, arguments)
}

// compileParameters compiles a tool's parameter schema for argument validation.
func compileParameters(params JSONSchema) (*jsonschema.Schema, error) {
	doc, err := params.schemaDocument()
	if err != nil {
		return nil, err
	}
	return jsonschema.CompileString("", string(doc))
}
