// Package session defines the conversation transcript shared between the
// agent loop and the LLM clients.
package session

import "encoding/json"

// Role values used in the transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON text exactly as produced by the model; it is only parsed when the
// call is dispatched.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParsedArgs decodes the raw argument JSON into a flat map. Malformed or
// empty argument text degrades to an empty map so a bad model emission never
// aborts the turn; the executor reports any missing field as a tool result.
func (t ToolCall) ParsedArgs() map[string]interface{} {
	args := map[string]interface{}{}
	if t.Arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(t.Arguments), &args); err != nil {
		return map[string]interface{}{}
	}
	return args
}

// Message is one entry in the conversation transcript.
//
// A user message may carry image references alongside its text. An assistant
// message may carry tool calls. A tool message carries the result text for
// exactly one call, identified by ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Images     []string   `json:"images,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Transcript is the append-only ordered conversation history. It is owned
// exclusively by one session's connection handler; nothing else mutates it,
// so no synchronization is needed.
type Transcript struct {
	messages []Message
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message at the end of the transcript. Messages are never
// reordered, replaced, or deduplicated.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns the transcript in insertion order. The returned slice is
// shared; callers must treat it as read-only.
func (t *Transcript) Messages() []Message {
	return t.messages
}

// Len reports the number of messages appended so far.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message, or a zero Message if empty.
func (t *Transcript) Last() Message {
	if len(t.messages) == 0 {
		return Message{}
	}
	return t.messages[len(t.messages)-1]
}
