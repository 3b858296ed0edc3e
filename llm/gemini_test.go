package llm

import (
	"context"
	"testing"

	"github.com/nbrandt/codewright/config"
	"github.com/nbrandt/codewright/tools"
)

func TestGeminiRequestModelIsolatesToolSets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	client, err := NewGeminiClient(context.Background(), "gemini-1.5-pro")
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}

	var access config.FilesystemAccess
	read := tools.NewReadFileTool(&access)
	write := tools.NewWriteFileTool(&access)
	search := tools.NewWebSearchTool()

	agentModel := client.requestModel([]tools.Tool{read, write, search})
	chatModel := client.requestModel([]tools.Tool{read, search})

	if agentModel == chatModel {
		t.Fatal("requestModel returned a shared model across requests")
	}
	if got := len(chatModel.Tools[0].FunctionDeclarations); got != 2 {
		t.Errorf("chat request carries %d tools, want 2", got)
	}
	// Building the second model must not disturb the first one's tool set.
	if got := len(agentModel.Tools[0].FunctionDeclarations); got != 3 {
		t.Errorf("earlier request's tool set changed to %d tools, want 3", got)
	}
	for _, decl := range chatModel.Tools[0].FunctionDeclarations {
		if decl.Name == "write_file" {
			t.Error("chat request advertises write_file")
		}
	}
}

func TestGeminiClientRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewGeminiClient(context.Background(), "gemini-1.5-pro"); err == nil {
		t.Fatal("NewGeminiClient succeeded without an API key")
	}
}
