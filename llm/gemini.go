package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/nbrandt/codewright/errors"
	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Google Gemini API. It is a request/response
// provider: the whole completion is produced at once and replayed as a
// single-chunk stream.
//
// The client is shared across sessions, so it holds no per-request state;
// each ChatStream builds its own GenerativeModel carrying that request's
// tool set.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a GeminiClient. It requires the GEMINI_API_KEY
// environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}
	return &GeminiClient{client: client, modelName: modelName}, nil
}

// requestModel builds a fresh GenerativeModel scoped to one request. Nothing
// on the shared client is mutated, so concurrent sessions cannot see each
// other's tool sets.
func (g *GeminiClient) requestModel(availableTools []tools.Tool) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.Tools = convertToolsToGemini(availableTools)
	return model
}

// ChatStream sends the transcript to Gemini and adapts the response into a
// single-chunk stream.
func (g *GeminiClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error) {
	history := convertMessagesToGemini(messages)
	if len(history) == 0 {
		return nil, errors.New("no messages to send")
	}

	lastMessage := history[len(history)-1]
	chatSession := g.requestModel(availableTools).StartChat()
	chatSession.History = history[:len(history)-1]

	resp, err := chatSession.SendMessage(ctx, lastMessage.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}
	return geminiResponseStream(resp)
}

// convertMessagesToGemini converts the transcript to Gemini's content
// format. Tool results are sent as function responses; the function name is
// recovered from the assistant message that issued the call.
func convertMessagesToGemini(messages []session.Message) []*genai.Content {
	callNames := make(map[string]string)
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case session.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				callNames[tc.ID] = tc.Name
				parts = append(parts, genai.FunctionCall{
					Name: tc.Name,
					Args: tc.ParsedArgs(),
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case session.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     callNames[msg.ToolCallID],
					Response: map[string]interface{}{"output": msg.Content},
				}},
			})
		default:
			// System and user messages both travel as user text; Gemini
			// has no separate system role in chat history.
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}
	return contents
}

// convertToolsToGemini converts the Tool interface to Gemini's
// FunctionDeclaration format.
func convertToolsToGemini(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	var funcDecls []*genai.FunctionDeclaration
	for _, t := range ts {
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  convertSchemaToGemini(t.Parameters()),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}

// convertSchemaToGemini maps the JSON-schema object shape onto genai.Schema.
// Every tool parameter in this system is a string.
func convertSchemaToGemini(s tools.Schema) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	if props, ok := s["properties"].(map[string]interface{}); ok {
		for name, raw := range props {
			prop := &genai.Schema{Type: genai.TypeString}
			if m, ok := raw.(map[string]interface{}); ok {
				if desc, ok := m["description"].(string); ok {
					prop.Description = desc
				}
			}
			schema.Properties[name] = prop
		}
	}
	if required, ok := s["required"].([]string); ok {
		schema.Required = required
	}
	return schema
}

// geminiResponseStream converts a Gemini response into a single-chunk
// stream.
func geminiResponseStream(resp *genai.GenerateContentResponse) (Stream, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}

	var chunk Chunk
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			chunk.TextDelta += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to marshal function call arguments")
			}
			idx := len(chunk.ToolCalls)
			chunk.ToolCalls = append(chunk.ToolCalls, ToolCallDelta{
				Index:     idx,
				ID:        fmt.Sprintf("call_%d_%s", idx, p.Name),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	return NewChunkStream(chunk), nil
}
