// Package tools implements the side-effecting actions the agent can take
// and the registry used to advertise and dispatch them.
package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Schema is a JSON-schema fragment describing a tool's parameters. It is
// converted into each provider's native tool format by the llm package.
type Schema map[string]interface{}

// ObjectSchema builds the standard object schema used by every tool.
func ObjectSchema(properties map[string]interface{}, required ...string) Schema {
	s := Schema{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Tool defines the interface for any action the agent can take.
//
// Execute never signals failure through its error return for conditions the
// model should see and react to: missing files, timeouts, and denied access
// all come back as descriptive result text. The error return is reserved for
// programming errors and is still rendered as text by the dispatcher.
type Tool interface {
	Name() string
	Description() string
	Parameters() Schema
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// Registry holds all registered tools keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice replaces the earlier
// tool but keeps its position.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Select returns the named tools in registration order, skipping names that
// are not registered.
func (r *Registry) Select(names ...string) []Tool {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	var out []Tool
	for _, n := range r.order {
		if allowed[n] {
			out = append(out, r.tools[n])
		}
	}
	return out
}

// All returns every registered tool in registration order.
func (r *Registry) All() []Tool {
	var out []Tool
	for _, n := range r.order {
		out = append(out, r.tools[n])
	}
	return out
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks a command against the allowlist patterns. An empty
// allowlist permits everything.
func isCommandAllowed(command string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	if len(strings.Fields(command)) == 0 {
		return false
	}
	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Fall back to exact comparison when the pattern is not a
			// valid regex.
			if command == pattern {
				return true
			}
			continue
		}
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}
