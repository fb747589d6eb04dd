package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// scanTree walks root and returns every file's path relative to root that
// matches at least one include glob and no exclude glob, grounded on the
// teacher's fs.go Scanner (bounded directory walk, extension-based
// language detection) but glob-driven per spec §4.1 step 1.
func scanTree(root string, includes, excludes []string) ([]string, error) {
	incGlobs := compileGlobs(includes)
	excGlobs := compileGlobs(excludes)

	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, g := range excGlobs {
			if g.Match(rel) {
				return nil
			}
		}
		for _, g := range incGlobs {
			if g.Match(rel) {
				out = append(out, rel)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func compileGlobs(patterns []string) []glob.Glob {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			continue
		}
		compiled = append(compiled, g)
	}
	return compiled
}

// contentHash computes the SHA256 hex digest of file content, matching the
// teacher's fs.go calculateHash used for reparse-skip comparisons.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// detectLanguage maps an extension to a language tag, a narrowed version
// of the teacher's fs.go detectLanguage restricted to the languages this
// engine's parsing contract covers.
func detectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".jsx":
		return "jsx"
	case ".py":
		return "python"
	default:
		return "unknown"
	}
}
