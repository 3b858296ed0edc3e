package llm

import (
	"context"
	"os"

	"github.com/nbrandt/codewright/errors"
	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
)

// OpenAIClient streams chat completions from the OpenAI API. Its delta
// format (index-keyed tool-call fragments) is carried through to the Chunk
// type unchanged.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAIClient. It requires the OPENAI_API_KEY
// environment variable and honors OPENAI_BASE_URL for custom endpoints.
func NewOpenAIClient(modelName string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(options...)
	// The &c is required: NewClient returns a value, not a pointer.
	return &OpenAIClient{client: &c, model: modelName}, nil
}

// ChatStream requests a streamed completion over the full transcript.
func (o *OpenAIClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: convertMessagesToOpenAI(messages),
		Tools:    convertToolsToOpenAI(availableTools),
	}
	return &openaiStream{inner: o.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

// openaiStream adapts the SDK's SSE stream to the Stream interface,
// dropping bookkeeping chunks that carry neither text nor tool fragments.
type openaiStream struct {
	inner   *ssestream.Stream[openai.ChatCompletionChunk]
	current Chunk
}

func (s *openaiStream) Next() bool {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		c := Chunk{TextDelta: delta.Content}
		for _, tc := range delta.ToolCalls {
			c.ToolCalls = append(c.ToolCalls, ToolCallDelta{
				Index:     int(tc.Index),
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		if c.TextDelta == "" && len(c.ToolCalls) == 0 {
			continue
		}
		s.current = c
		return true
	}
	return false
}

func (s *openaiStream) Current() Chunk { return s.current }
func (s *openaiStream) Err() error    { return s.inner.Err() }
func (s *openaiStream) Close() error  { return s.inner.Close() }

// convertMessagesToOpenAI converts the transcript to OpenAI's message
// format. User messages with image references become multimodal content
// parts.
func convertMessagesToOpenAI(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Content))
		case session.RoleAssistant:
			assistantMessage := openai.ChatCompletionMessage{
				Role:    "assistant",
				Content: msg.Content,
			}
			for _, tc := range msg.ToolCalls {
				assistantMessage.ToolCalls = append(assistantMessage.ToolCalls, openai.ChatCompletionMessageToolCallUnion{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageFunctionToolCallFunction{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			chatMessages = append(chatMessages, assistantMessage.ToParam())
		case session.RoleTool:
			chatMessages = append(chatMessages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case session.RoleUser:
			fallthrough
		default:
			if len(msg.Images) == 0 {
				chatMessages = append(chatMessages, openai.UserMessage(msg.Content))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(msg.Content),
			}
			for _, img := range msg.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: img,
				}))
			}
			chatMessages = append(chatMessages, openai.UserMessage(parts))
		}
	}
	return chatMessages
}

// convertToolsToOpenAI converts the Tool interface to the OpenAI function
// tool format, carrying each tool's real parameter schema.
func convertToolsToOpenAI(ts []tools.Tool) []openai.ChatCompletionToolUnionParam {
	if len(ts) == 0 {
		return nil
	}
	var openAITools []openai.ChatCompletionToolUnionParam
	for _, t := range ts {
		openAITools = append(openAITools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
			Parameters:  openai.FunctionParameters(t.Parameters()),
		}))
	}
	return openAITools
}
