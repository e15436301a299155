package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteProgram writes an NC program to path, creating parent directories.
// A trailing newline is added when missing.
func WriteProgram(path, program string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if !strings.HasSuffix(program, "\n") {
		program += "\n"
	}
	if err := os.WriteFile(path, []byte(program), 0644); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	return nil
}
