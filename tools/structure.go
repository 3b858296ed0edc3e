package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ignoreDirs are conventional directories excluded from the project
// structure snapshot.
var ignoreDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	".env":         true,
	"dist":         true,
	"build":        true,
	".codewright":  true,
}

// ProjectStructure renders an indented text tree of the directories and
// files under root, skipping the conventional ignore set. Traversal failure
// degrades to an inline error string so callers never have to special-case
// it.
func ProjectStructure(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Sprintf("Error generating structure: %v", err)
	}

	var b strings.Builder
	b.WriteString(filepath.Base(abs) + "/")
	if err := walkStructure(&b, root, 1); err != nil {
		return fmt.Sprintf("Error generating structure: %v", err)
	}
	return b.String()
}

func walkStructure(b *strings.Builder, dir string, level int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", level)
	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			if !ignoreDirs[entry.Name()] {
				subdirs = append(subdirs, entry.Name())
			}
			continue
		}
		b.WriteString("\n" + indent + entry.Name())
	}
	for _, name := range subdirs {
		b.WriteString("\n" + indent + name + "/")
		if err := walkStructure(b, filepath.Join(dir, name), level+1); err != nil {
			return err
		}
	}
	return nil
}
