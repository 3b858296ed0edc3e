package llm

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/nbrandt/codewright/errors"
	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
)

// AnthropicClient streams chat completions from the Anthropic API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates an AnthropicClient. It requires the
// ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicClient(modelName string) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{client: &client, model: modelName}, nil
}

// ChatStream requests a streamed completion over the full transcript.
func (a *AnthropicClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error) {
	anthropicMessages, systemPrompt := convertMessagesToAnthropic(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 4096,
		Messages:  anthropicMessages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	for _, t := range availableTools {
		toolParam := anthropic.ToolParam{
			Name:        t.Name(),
			Description: anthropic.String(t.Description()),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.Parameters()["properties"],
			},
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}

	return &anthropicStream{
		inner:      a.client.Messages.NewStreaming(ctx, params),
		blockIndex: make(map[int64]int),
	}, nil
}

// anthropicStream adapts Anthropic's content-block events onto the Chunk
// shape. Anthropic indexes blocks across text and tool_use alike, so block
// indices are remapped onto a dense tool-call index sequence.
type anthropicStream struct {
	inner      *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current    Chunk
	blockIndex map[int64]int
}

func (s *anthropicStream) Next() bool {
	for s.inner.Next() {
		event := s.inner.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if block, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				idx := len(s.blockIndex)
				s.blockIndex[ev.Index] = idx
				s.current = Chunk{ToolCalls: []ToolCallDelta{{
					Index: idx,
					ID:    block.ID,
					Name:  block.Name,
				}}}
				return true
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				s.current = Chunk{TextDelta: delta.Text}
				return true
			case anthropic.InputJSONDelta:
				idx, ok := s.blockIndex[ev.Index]
				if !ok || delta.PartialJSON == "" {
					continue
				}
				s.current = Chunk{ToolCalls: []ToolCallDelta{{
					Index:     idx,
					Arguments: delta.PartialJSON,
				}}}
				return true
			}
		}
	}
	return false
}

func (s *anthropicStream) Current() Chunk { return s.current }
func (s *anthropicStream) Err() error     { return s.inner.Err() }
func (s *anthropicStream) Close() error   { return s.inner.Close() }

// convertMessagesToAnthropic converts the transcript to Anthropic's message
// format. System messages become the system prompt; tool results travel as
// user-role tool_result blocks.
func convertMessagesToAnthropic(messages []session.Message) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Content
		case session.RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case session.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: msg.Content},
				})
			}
			for _, tc := range msg.ToolCalls {
				input := []byte(tc.Arguments)
				if len(input) == 0 {
					input = []byte("{}")
				}
				content = append(content, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						Type:  "tool_use",
						ID:    tc.ID,
						Name:  tc.Name,
						Input: input,
					},
				})
			}
			if len(content) == 0 {
				continue
			}
			anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: content,
			})
		case session.RoleTool:
			anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: msg.ToolCallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{{
							OfText: &anthropic.TextBlockParam{Text: msg.Content},
						}},
					},
				}},
			})
		}
	}

	return anthropicMessages, systemPrompt
}
