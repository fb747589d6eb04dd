package engine

import (
	"os"
	"time"

	"grok-cli/internal/logging"
)

// handleWatchEvent implements the incremental update protocol of spec
// §4.1: add/change reparses and atomically replaces F's index entries
// under e.mu; unlink removes every trace of F. Hash-unchanged reparses
// are skipped. All F-specific maps are updated without yielding between
// removal and insertion so concurrent queries never see a half-updated F.
func (e *Engine) handleWatchEvent(rel, abs string) {
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			e.removeFile(rel)
			return
		}
		logging.EngineWarn("watcher: failed to read %s: %v", rel, err)
		return
	}

	e.mu.RLock()
	existing, known := e.files[rel]
	e.mu.RUnlock()

	newHash := contentHash(content)
	if known && existing.ContentHash == newHash {
		return // unchanged, skip reparse entirely
	}

	e.mu.RLock()
	oldNames := e.symbolNamesInFileLocked(rel)
	e.mu.RUnlock()

	lang := detectLanguage(rel)
	result := parseSource(lang, abs, content)

	meta := &FileMetadata{
		RelPath:      rel,
		AbsPath:      abs,
		Language:     lang,
		LastModified: time.Now(),
		ContentHash:  newHash,
		Indexed:      true,
	}

	e.mu.Lock()
	e.removeFileEntriesLocked(rel)
	e.applyParseResultLocked(rel, meta, result, string(content))
	newNames := symbolNamesIn(result)
	union := unionStrings(oldNames, newNames)
	e.mu.Unlock()

	e.rebuildCrossReferencesFor(union)
	logging.EngineDebug("engine: reindexed %s (%d symbols)", rel, len(result.Symbols))
}

// removeFile drops every trace of F from every index, per spec §4.1's
// unlink handling.
func (e *Engine) removeFile(rel string) {
	e.mu.Lock()
	oldNames := e.symbolNamesInFileLocked(rel)
	e.removeFileEntriesLocked(rel)
	e.mu.Unlock()

	e.rebuildCrossReferencesFor(oldNames)
	logging.EngineDebug("engine: removed %s from index", rel)
}

// removeFileEntriesLocked strips rel from files, parseResults,
// parseErrors, symbolIndex, dependencies, and reverse dependents. Caller
// must hold e.mu.
func (e *Engine) removeFileEntriesLocked(rel string) {
	delete(e.files, rel)
	delete(e.parseResults, rel)
	delete(e.parseErrors, rel)

	for name, refs := range e.symbolIndex {
		filtered := refs[:0]
		for _, r := range refs {
			if r.File != rel {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			delete(e.symbolIndex, name)
		} else {
			e.symbolIndex[name] = filtered
		}
	}

	for dep := range e.dependencies[rel] {
		if set, ok := e.dependents[dep]; ok {
			delete(set, rel)
			if len(set) == 0 {
				delete(e.dependents, dep)
			}
		}
	}
	delete(e.dependencies, rel)

	for dependent := range e.dependents[rel] {
		if set, ok := e.dependencies[dependent]; ok {
			delete(set, rel)
		}
	}
	delete(e.dependents, rel)
}

// symbolNamesInFileLocked returns the set of symbol names currently
// attributed to rel. Caller must hold e.mu (read or write).
func (e *Engine) symbolNamesInFileLocked(rel string) map[string]bool {
	names := make(map[string]bool)
	for name, refs := range e.symbolIndex {
		for _, r := range refs {
			if r.File == rel {
				names[name] = true
				break
			}
		}
	}
	return names
}

func symbolNamesIn(result *ParseResult) map[string]bool {
	names := make(map[string]bool, len(result.Symbols))
	for _, s := range result.Symbols {
		names[s.Name] = true
	}
	return names
}

func unionStrings(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// rebuildCrossReferencesFor recomputes CrossReference entries for exactly
// the given symbol names, per spec §4.1's "union of old and new symbol
// names in F" rebuild scope.
func (e *Engine) rebuildCrossReferencesFor(names map[string]bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name := range names {
		refs, ok := e.symbolIndex[name]
		if !ok || len(refs) == 0 {
			delete(e.crossRefs, name)
			continue
		}
		var def *DefinitionSite
		var sites []ReferenceSite
		for _, ref := range refs {
			for _, u := range ref.Usages {
				if u.Tag == UsageDefinition && def == nil {
					def = &DefinitionSite{File: ref.File, Position: Position{Row: u.Line, Column: u.Column}}
				}
				sites = append(sites, ReferenceSite{File: ref.File, Usage: u})
			}
		}
		if def == nil {
			def = &DefinitionSite{File: refs[0].File, Position: refs[0].Symbol.Start}
		}
		e.crossRefs[name] = &CrossReference{SymbolName: name, Definition: *def, References: sites}
	}
}
