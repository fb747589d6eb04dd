package refactor

import (
	"os"
	"path/filepath"
	"strings"
)

// DiskFiles is the production FileLines implementation: it reads files
// relative to Root from the real filesystem.
type DiskFiles struct {
	Root string
}

// Lines reads path (relative to Root) and splits it on "\n".
func (d DiskFiles) Lines(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, path))
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
