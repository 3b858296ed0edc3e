package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
)

// maxToolRounds bounds the number of completion requests one user message
// may trigger. It is a hard circuit breaker against a model that keeps
// requesting tools forever.
const maxToolRounds = 10

// Session is the per-connection conversation state machine. It owns the
// transcript, mediates between streamed model output and tool execution,
// and reports progress through its Emitter.
//
// A Session is driven by exactly one connection handler goroutine; none of
// its methods are safe for concurrent use.
type Session struct {
	client      llm.Client
	registry    *tools.Registry
	handlers    map[string]toolHandler
	emitter     Emitter
	transcript  *session.Transcript
	log         *slog.Logger
	projectRoot string

	mode        Mode
	initialized bool
}

// NewSession creates a session in the uninitialized state. The project
// structure snapshot is taken from projectRoot at initialization time.
func NewSession(client llm.Client, registry *tools.Registry, emitter Emitter, log *slog.Logger, projectRoot string) *Session {
	if projectRoot == "" {
		projectRoot = "."
	}
	return &Session{
		client:      client,
		registry:    registry,
		handlers:    buildHandlers(registry),
		emitter:     emitter,
		transcript:  session.NewTranscript(),
		log:         log,
		projectRoot: projectRoot,
	}
}

// Initialized reports whether the session has left the uninitialized state.
func (s *Session) Initialized() bool {
	return s.initialized
}

// Mode returns the mode selected at initialization.
func (s *Session) Mode() Mode {
	return s.mode
}

// Transcript exposes the conversation history for inspection.
func (s *Session) Transcript() *session.Transcript {
	return s.transcript
}

// Initialize performs the one-time setup: it fixes the mode, seeds the
// system prompt with a live project-structure snapshot, and announces
// readiness. A second call on an active session is a no-op.
func (s *Session) Initialize(ctx context.Context, mode Mode) error {
	if s.initialized {
		return nil
	}
	s.mode = mode
	s.initialized = true

	structure := tools.ProjectStructure(s.projectRoot)
	s.transcript.Append(session.Message{
		Role:    session.RoleSystem,
		Content: mode.SystemPrompt(structure),
	})
	s.log.Info("session initialized", "mode", mode)

	return s.emitter.Emit(ctx, newThought("", fmt.Sprintf("Session started in %s mode. I'm ready.", mode)))
}

// HandleMessage appends a user message and runs the turn loop until the
// model produces a final answer, a round fails, or the round budget is
// exhausted. The returned error reports only connection-level failure;
// model and tool failures are absorbed into the conversation.
func (s *Session) HandleMessage(ctx context.Context, text string, images []string) error {
	s.transcript.Append(session.Message{
		Role:    session.RoleUser,
		Content: text,
		Images:  images,
	})

	allowed := s.registry.Select(s.mode.AllowedTools()...)

	for round := 0; round < maxToolRounds; round++ {
		stream, err := s.client.ChatStream(ctx, s.transcript.Messages(), allowed)
		if err != nil {
			// Single attempt per turn; the client may retry by sending a
			// new message.
			s.log.Warn("completion request failed", "error", err)
			return s.emitter.Emit(ctx, newThought("", fmt.Sprintf("LLM Error: %v", err)))
		}

		thoughtID := "thought-" + uuid.NewString()
		var emitErr error
		thought, calls, err := aggregate(stream, func(cumulative string) {
			if emitErr == nil {
				emitErr = s.emitter.Emit(ctx, newThought(thoughtID, cumulative))
			}
		})
		if emitErr != nil {
			return emitErr
		}
		if err != nil {
			s.log.Warn("completion stream failed", "error", err)
			return s.emitter.Emit(ctx, newThought("", fmt.Sprintf("LLM Error: %v", err)))
		}

		if thought != "" {
			s.transcript.Append(session.Message{Role: session.RoleAssistant, Content: thought})
		}
		if len(calls) == 0 {
			// Final answer reached.
			return nil
		}

		s.transcript.Append(session.Message{
			Role:      session.RoleAssistant,
			Content:   thought,
			ToolCalls: calls,
		})
		if err := s.runToolCalls(ctx, calls); err != nil {
			return err
		}
	}
	return nil
}

// runToolCalls dispatches each call sequentially in ascending index order,
// appending one tool-result message per call immediately after it executes.
// Sequential execution keeps the event stream and the transcript trivially
// ordered.
func (s *Session) runToolCalls(ctx context.Context, calls []session.ToolCall) error {
	for _, call := range calls {
		handler, ok := s.handlers[call.Name]
		if !ok {
			handler = notFoundHandler{}
		}

		eventID := "evt-" + call.ID
		result, err := handler.Invoke(ctx, s.emitter, eventID, call.ParsedArgs())
		if err != nil {
			return err
		}
		s.log.Info("tool executed", "tool", call.Name, "call_id", call.ID)

		s.transcript.Append(session.Message{
			Role:       session.RoleTool,
			ToolCallID: call.ID,
			Content:    result,
		})
	}
	return nil
}
