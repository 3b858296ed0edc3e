package agent

import "context"

// Event is a structured progress record pushed to the client. Each concrete
// event carries its own wire type tag; events that belong to a multi-message
// sequence (a thought, one tool invocation) carry a stable id.
type Event interface {
	event()
}

// Thought carries the cumulative assistant text so far for one completion.
// It is re-sent with the same id after every text fragment; the client
// overwrites its prior display rather than appending.
type Thought struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Command reports a shell command (or the synthesized label for a web
// search): once with an empty Output before execution, once populated after.
type Command struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Command string `json:"command"`
	Output  string `json:"output"`
}

// FileReadStart announces a file read before it executes.
type FileReadStart struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// FileReadResult reports a completed file read with a bounded preview, never
// the full body.
type FileReadResult struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Path           string `json:"path"`
	Lines          int    `json:"lines"`
	ContentPreview string `json:"content_preview"`
}

// FileWriteStart announces a file write with a bounded preview of the
// content about to be written.
type FileWriteStart struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Path           string `json:"path"`
	ContentPreview string `json:"content_preview"`
}

// FileWriteResult reports the executor's status text for a completed write.
type FileWriteResult struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Path   string `json:"path"`
	Output string `json:"output"`
}

func (Thought) event()         {}
func (Command) event()         {}
func (FileReadStart) event()   {}
func (FileReadResult) event()  {}
func (FileWriteStart) event()  {}
func (FileWriteResult) event() {}

func newThought(id, content string) Thought {
	return Thought{ID: id, Type: "thought", Content: content}
}

func newCommand(id, command, output string) Command {
	return Command{ID: id, Type: "command", Command: command, Output: output}
}

// Emitter delivers events to the client. The transport implements it over
// the live connection; tests substitute a recorder.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
