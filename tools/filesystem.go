package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nbrandt/codewright/config"
)

// ReadFileTool reads the full contents of a file.
type ReadFileTool struct {
	fsAccess *config.FilesystemAccess
}

// NewReadFileTool creates a ReadFileTool bound to the given access policy.
func NewReadFileTool(fsAccess *config.FilesystemAccess) *ReadFileTool {
	return &ReadFileTool{fsAccess: fsAccess}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file."
}

func (t *ReadFileTool) Parameters() Schema {
	return ObjectSchema(map[string]interface{}{
		"path": map[string]interface{}{"type": "string"},
	}, "path")
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	path := stringArg(args, "path")

	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return "", err
	}
	if hidden {
		return fmt.Sprintf("Error: File '%s' not found.", path), nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("Error: File '%s' not found.", path), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err), nil
	}
	return string(content), nil
}

// WriteFileTool writes content to a file, replacing it entirely and creating
// intermediate directories as needed.
type WriteFileTool struct {
	fsAccess *config.FilesystemAccess
}

// NewWriteFileTool creates a WriteFileTool bound to the given access policy.
func NewWriteFileTool(fsAccess *config.FilesystemAccess) *WriteFileTool {
	return &WriteFileTool{fsAccess: fsAccess}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file. Overwrites existing content."
}

func (t *WriteFileTool) Parameters() Schema {
	return ObjectSchema(map[string]interface{}{
		"path":    map[string]interface{}{"type": "string"},
		"content": map[string]interface{}{"type": "string"},
	}, "path", "content")
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	path := stringArg(args, "path")
	content := stringArg(args, "content")

	hidden, err := isPathRestricted(path, t.fsAccess.Hidden)
	if err != nil {
		return "", err
	}
	readOnly, err := isPathRestricted(path, t.fsAccess.ReadOnly)
	if err != nil {
		return "", err
	}
	if hidden || readOnly {
		return fmt.Sprintf("Error writing file: access denied: '%s' is restricted", path), nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("Error writing file: %v", err), nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Sprintf("Error writing file: %v", err), nil
	}
	return fmt.Sprintf("Successfully wrote to %s", path), nil
}
