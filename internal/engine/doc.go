// Package engine implements the Code Intelligence Engine.
//
// An Engine scans a source tree, parses each file with tree-sitter (with
// a regex-based fallback when a grammar isn't available), and maintains
// an in-memory symbol index, a bidirectional file dependency graph, and a
// cross-reference table. After the initial scan it watches the tree for
// changes and updates affected files' entries incrementally.
//
// All queries (FindSymbol, GetDependencies, AnalyzeImpact, ...) are
// synchronous reads over maps guarded by a single mutex; writes happen
// only during the initial scan and inside debounced watcher handlers.
package engine
