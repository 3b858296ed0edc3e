package agent

import "fmt"

// Mode selects the system prompt and the subset of tools advertised to the
// model. It is immutable after initialization.
type Mode string

const (
	// ModeAgent exposes every tool and an autonomous prompt.
	ModeAgent Mode = "agent"
	// ModeChat exposes only non-mutating tools. The restriction is
	// structural: write_file and run_terminal_command are never advertised
	// to the model, so it cannot request them.
	ModeChat Mode = "chat"
)

const promptAgent = `You are a Senior Software Engineer. Act autonomously. Plan first.
You can read files, write files, run terminal commands, and search the web.
If you see an image, analyze it to understand the bug or error.
Current Structure:
%s`

const promptChat = `You are a Code Assistant. READ-ONLY mode.
Current Structure:
%s`

// ParseMode maps a client-supplied mode string onto a Mode, defaulting to
// agent.
func ParseMode(s string) Mode {
	if s == string(ModeChat) {
		return ModeChat
	}
	return ModeAgent
}

// SystemPrompt renders the mode's prompt template around the project
// structure snapshot.
func (m Mode) SystemPrompt(structure string) string {
	if m == ModeChat {
		return fmt.Sprintf(promptChat, structure)
	}
	return fmt.Sprintf(promptAgent, structure)
}

// AllowedTools returns the tool names the mode advertises to the model.
func (m Mode) AllowedTools() []string {
	if m == ModeChat {
		return []string{"read_file", "web_search"}
	}
	return []string{"read_file", "write_file", "run_terminal_command", "web_search"}
}
