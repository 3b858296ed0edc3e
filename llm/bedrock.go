package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/nbrandt/codewright/errors"
	"github.com/nbrandt/codewright/session"
	"github.com/nbrandt/codewright/tools"
)

// BedrockClient talks to Anthropic models hosted on AWS Bedrock. Like
// Gemini, it is a request/response provider replayed as a single-chunk
// stream.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockClient creates a BedrockClient. AWS credentials must be
// configured in the environment.
func NewBedrockClient(ctx context.Context, modelID string) (*BedrockClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}, nil
}

// ChatStream sends the transcript to Bedrock and adapts the response into a
// single-chunk stream.
func (b *BedrockClient) ChatStream(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (Stream, error) {
	body, err := buildBedrockRequest(messages, availableTools)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to invoke Bedrock model")
	}
	return bedrockResponseStream(resp.Body)
}

// buildBedrockRequest marshals the transcript into the Anthropic-on-Bedrock
// request body.
func buildBedrockRequest(messages []session.Message, availableTools []tools.Tool) ([]byte, error) {
	var bedrockMessages []map[string]interface{}
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Content
		case session.RoleUser:
			bedrockMessages = append(bedrockMessages, map[string]interface{}{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": msg.Content},
				},
			})
		case session.RoleAssistant:
			var content []map[string]interface{}
			if msg.Content != "" {
				content = append(content, map[string]interface{}{
					"type": "text", "text": msg.Content,
				})
			}
			for _, tc := range msg.ToolCalls {
				content = append(content, map[string]interface{}{
					"type":  "tool_use",
					"id":    tc.ID,
					"name":  tc.Name,
					"input": tc.ParsedArgs(),
				})
			}
			if len(content) == 0 {
				continue
			}
			bedrockMessages = append(bedrockMessages, map[string]interface{}{
				"role":    "assistant",
				"content": content,
			})
		case session.RoleTool:
			bedrockMessages = append(bedrockMessages, map[string]interface{}{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type":        "tool_result",
						"tool_use_id": msg.ToolCallID,
						"content":     msg.Content,
					},
				},
			})
		}
	}

	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        4096,
		"messages":          bedrockMessages,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}
	if len(availableTools) > 0 {
		var toolDefs []map[string]interface{}
		for _, t := range availableTools {
			toolDefs = append(toolDefs, map[string]interface{}{
				"name":         t.Name(),
				"description":  t.Description(),
				"input_schema": map[string]interface{}(t.Parameters()),
			})
		}
		request["tools"] = toolDefs
	}

	return json.Marshal(request)
}

// bedrockResponseStream converts a Bedrock response body into a
// single-chunk stream.
func bedrockResponseStream(body []byte) (Stream, error) {
	var response struct {
		Error   interface{} `json:"error"`
		Content []struct {
			Type  string                 `json:"type"`
			Text  string                 `json:"text"`
			ID    string                 `json:"id"`
			Name  string                 `json:"name"`
			Input map[string]interface{} `json:"input"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}
	if response.Error != nil {
		return nil, errors.New("Bedrock API error: %v", response.Error)
	}

	var chunk Chunk
	for _, item := range response.Content {
		switch item.Type {
		case "text":
			chunk.TextDelta += item.Text
		case "tool_use":
			args, err := json.Marshal(item.Input)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to marshal tool input")
			}
			idx := len(chunk.ToolCalls)
			id := item.ID
			if id == "" {
				id = fmt.Sprintf("call_%d_%s", idx, item.Name)
			}
			chunk.ToolCalls = append(chunk.ToolCalls, ToolCallDelta{
				Index:     idx,
				ID:        id,
				Name:      item.Name,
				Arguments: string(args),
			})
		}
	}
	return NewChunkStream(chunk), nil
}
