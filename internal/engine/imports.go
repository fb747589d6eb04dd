package engine

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

var resolveExts = []string{".ts", ".tsx", ".js", ".jsx", ".json"}

// resolveImports resolves each raw import specifier found in the file at
// rel (relative to root) to another relative path in the tree, per spec
// §4.1's import resolution order. Non-relative specifiers (bare package
// names) and specifiers that resolve to nothing are dropped silently —
// "unresolved imports are ignored for graph purposes".
func resolveImports(root, rel string, specifiers []string) []string {
	dir := filepath.Dir(rel)
	var resolved []string
	for _, spec := range specifiers {
		if !strings.HasPrefix(spec, ".") {
			continue // bare package import, not part of the local graph
		}
		target := path.Clean(path.Join(filepath.ToSlash(dir), spec))
		if hit, ok := resolveCandidate(root, target); ok {
			resolved = append(resolved, hit)
		}
	}
	return resolved
}

// resolveCandidate tries, in order: the exact path, the path plus each
// resolveExts extension, then the path as a directory containing an
// "index" file plus each extension. First hit wins.
func resolveCandidate(root, target string) (string, bool) {
	if exists(root, target) {
		return target, true
	}
	for _, ext := range resolveExts {
		candidate := target + ext
		if exists(root, candidate) {
			return candidate, true
		}
	}
	for _, ext := range resolveExts {
		candidate := path.Join(target, "index"+ext)
		if exists(root, candidate) {
			return candidate, true
		}
	}
	return "", false
}

func exists(root, rel string) bool {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}
