package logmux

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureFiles creates every missing path (and its parent directories) as an
// empty file so following can start before the writer ever opened them.
// Existing files are left untouched.
func EnsureFiles(paths []string) error {
	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log directory for %s: %w", path, err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("create log file %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close log file %s: %w", path, err)
		}
	}
	return nil
}
