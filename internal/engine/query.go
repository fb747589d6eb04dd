package engine

import (
	"regexp"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// GetAST returns the cached tree-sitter tree for an indexed file, if one
// was produced (tree-sitter-unsupported files have no AST).
func (e *Engine) GetAST(file string) (*sitter.Tree, bool) {
	e.mu.RLock()
	meta, ok := e.files[file]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return getCachedTree(meta.AbsPath)
}

// FindSymbol returns every SymbolReference recorded for an exact name.
func (e *Engine) FindSymbol(name string) []SymbolReference {
	e.mu.RLock()
	defer e.mu.RUnlock()
	refs := e.symbolIndex[name]
	out := make([]SymbolReference, len(refs))
	copy(out, refs)
	return out
}

// FindSymbolByPattern returns every SymbolReference whose symbol name
// matches the given regex pattern.
func (e *Engine) FindSymbolByPattern(pattern string, caseSensitive bool) ([]SymbolReference, error) {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []SymbolReference
	names := make([]string, 0, len(e.symbolIndex))
	for name := range e.symbolIndex {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if re.MatchString(name) {
			out = append(out, e.symbolIndex[name]...)
		}
	}
	return out, nil
}

// FindReferences returns the CrossReference entry for name, if any symbol
// by that name has been indexed.
func (e *Engine) FindReferences(name string) (*CrossReference, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ref, ok := e.crossRefs[name]
	if !ok {
		return nil, false
	}
	cp := *ref
	return &cp, true
}

// GetDependencies returns the files that file imports (resolved, local
// targets only).
func (e *Engine) GetDependencies(file string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.dependencies[file])
}

// GetDependents returns the files that import file (direct only).
func (e *Engine) GetDependents(file string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.dependents[file])
}

// GetFileSymbols returns every symbol declared in file.
func (e *Engine) GetFileSymbols(file string) []Symbol {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Symbol
	for _, refs := range e.symbolIndex {
		for _, r := range refs {
			if r.File == file {
				out = append(out, r.Symbol)
			}
		}
	}
	return out
}

// GetFileMetadata returns the FileMetadata for file, if indexed.
func (e *Engine) GetFileMetadata(file string) (FileMetadata, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	meta, ok := e.files[file]
	if !ok {
		return FileMetadata{}, false
	}
	return *meta, true
}

// GetParseErrors returns parse errors for file, or for every file with
// recorded errors when file is empty.
func (e *Engine) GetParseErrors(file string) []ParseError {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if file != "" {
		return append([]ParseError(nil), e.parseErrors[file]...)
	}
	var all []ParseError
	files := sortedKeys(e.parseErrorFileSet())
	for _, f := range files {
		all = append(all, e.parseErrors[f]...)
	}
	return all
}

func (e *Engine) parseErrorFileSet() map[string]bool {
	set := make(map[string]bool, len(e.parseErrors))
	for f := range e.parseErrors {
		set[f] = true
	}
	return set
}

// GetStatistics summarizes the current index.
func (e *Engine) GetStatistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := Statistics{
		FileCount:      len(e.files),
		LanguageCounts: make(map[string]int),
	}
	for _, meta := range e.files {
		stats.LanguageCounts[meta.Language]++
	}
	for _, refs := range e.symbolIndex {
		stats.SymbolCount += len(refs)
	}
	for _, errs := range e.parseErrors {
		stats.ParseErrorCount += len(errs)
	}
	return stats
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
