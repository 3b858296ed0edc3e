package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nbrandt/codewright/tools"
)

// toolHandler executes one tool call and emits its start/result event pair.
// The returned error reports only emitter (connection) failure; tool-level
// failure is folded into the result text so the model can see it.
type toolHandler interface {
	Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error)
}

// buildHandlers wires each registered tool to the handler that knows its
// event shape. Names missing from the returned map fall through to the
// not-found handler at dispatch time.
func buildHandlers(registry *tools.Registry) map[string]toolHandler {
	handlers := make(map[string]toolHandler)
	if t, ok := registry.Get("run_terminal_command"); ok {
		handlers[t.Name()] = commandHandler{tool: t}
	}
	if t, ok := registry.Get("read_file"); ok {
		handlers[t.Name()] = readHandler{tool: t}
	}
	if t, ok := registry.Get("write_file"); ok {
		handlers[t.Name()] = writeHandler{tool: t}
	}
	if t, ok := registry.Get("web_search"); ok {
		handlers[t.Name()] = searchHandler{tool: t}
	}
	return handlers
}

// execute runs the tool and renders any error return as result text.
func execute(ctx context.Context, t tools.Tool, args map[string]interface{}) string {
	out, err := t.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// preview truncates s to at most limit bytes without splitting a rune, so
// the event JSON never carries an invalid trailing byte.
func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// countLines matches the line semantics of the read event: no trailing
// phantom line, zero lines for empty content.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

type commandHandler struct{ tool tools.Tool }

func (h commandHandler) Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error) {
	command := argString(args, "command")
	if err := em.Emit(ctx, newCommand(eventID, command, "")); err != nil {
		return "", err
	}
	out := execute(ctx, h.tool, args)
	if err := em.Emit(ctx, newCommand(eventID, command, out)); err != nil {
		return "", err
	}
	return out, nil
}

type readHandler struct{ tool tools.Tool }

func (h readHandler) Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error) {
	path := argString(args, "path")
	if err := em.Emit(ctx, FileReadStart{ID: eventID, Type: "file_read", Path: path}); err != nil {
		return "", err
	}
	content := execute(ctx, h.tool, args)
	result := FileReadResult{
		ID:             eventID,
		Type:           "file_read",
		Path:           path,
		Lines:          countLines(content),
		ContentPreview: preview(content, 500),
	}
	if err := em.Emit(ctx, result); err != nil {
		return "", err
	}
	return content, nil
}

type writeHandler struct{ tool tools.Tool }

func (h writeHandler) Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error) {
	path := argString(args, "path")
	content := argString(args, "content")
	start := FileWriteStart{
		ID:             eventID,
		Type:           "file_write",
		Path:           path,
		ContentPreview: preview(content, 200) + "...",
	}
	if err := em.Emit(ctx, start); err != nil {
		return "", err
	}
	out := execute(ctx, h.tool, args)
	if err := em.Emit(ctx, FileWriteResult{ID: eventID, Type: "file_write", Path: path, Output: out}); err != nil {
		return "", err
	}
	return out, nil
}

type searchHandler struct{ tool tools.Tool }

func (h searchHandler) Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error) {
	label := fmt.Sprintf("web_search '%s'", argString(args, "query"))
	if err := em.Emit(ctx, newCommand(eventID, label, "Searching...")); err != nil {
		return "", err
	}
	out := execute(ctx, h.tool, args)
	if err := em.Emit(ctx, newCommand(eventID, label, out)); err != nil {
		return "", err
	}
	return out, nil
}

// notFoundHandler answers calls for tool names the registry does not know.
type notFoundHandler struct{}

func (notFoundHandler) Invoke(ctx context.Context, em Emitter, eventID string, args map[string]interface{}) (string, error) {
	return "Error: Tool not found.", nil
}
