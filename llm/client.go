// Package llm abstracts streamed chat completions over multiple model
// providers behind a single pull-based interface.
package llm

import (
	"context"
	"fmt"

	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
)

// ToolCallDelta is one fragment of an in-progress tool call. Index is the
// only correlation key: a single completion may interleave fragments for
// several calls, and a call's id, name, and argument text may be split
// across arbitrarily many fragments.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Chunk is one increment of a streamed completion. Either field may be
// empty.
type Chunk struct {
	TextDelta string
	ToolCalls []ToolCallDelta
}

// Stream is a pull-based sequence of chunks. The consumer drives it in a
// single pass:
//
//	for stream.Next() {
//		chunk := stream.Current()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// Client is the interface for requesting a streamed chat completion
// restricted to a set of advertised tools.
type Client interface {
	ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error)
}

// ChunkStream adapts a fixed slice of chunks into a Stream. It backs the
// request/response providers (which produce their whole completion at once)
// and test fakes.
type ChunkStream struct {
	chunks []Chunk
	pos    int
}

// NewChunkStream returns a Stream that yields the given chunks in order.
func NewChunkStream(chunks ...Chunk) *ChunkStream {
	return &ChunkStream{chunks: chunks, pos: -1}
}

func (s *ChunkStream) Next() bool {
	if s.pos+1 >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *ChunkStream) Current() Chunk {
	if s.pos < 0 || s.pos >= len(s.chunks) {
		return Chunk{}
	}
	return s.chunks[s.pos]
}

func (s *ChunkStream) Err() error   { return nil }
func (s *ChunkStream) Close() error { return nil }

// MockClient is a keyless stand-in used in tests and when no provider is
// configured. It echoes the last message back as a single text chunk.
type MockClient struct{}

func (m *MockClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	text := fmt.Sprintf("I am a mock model. You said: '%s'. I cannot reach a real provider.", last)
	return NewChunkStream(Chunk{TextDelta: text}), nil
}
