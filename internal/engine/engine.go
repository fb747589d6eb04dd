package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"grok-cli/internal/logging"
)

// DefaultIncludeGlobs matches the spec's default include set.
var DefaultIncludeGlobs = []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.py"}

// DefaultExcludeGlobs matches the spec's default exclude set.
var DefaultExcludeGlobs = []string{"**/node_modules/**", "**/dist/**", "**/.git/**", "**/.grok/**"}

const (
	defaultBatchSize       = 10
	defaultUpdateDebounce  = 300 * time.Millisecond
	defaultSettleInterval  = 200 * time.Millisecond
)

// Options configures an Engine's scan and watch behavior.
type Options struct {
	Root             string
	IncludeGlobs     []string
	ExcludeGlobs     []string
	BatchSize        int
	UpdateDebounceMs int
	DisableWatcher   bool
}

func (o *Options) setDefaults() {
	if len(o.IncludeGlobs) == 0 {
		o.IncludeGlobs = DefaultIncludeGlobs
	}
	if len(o.ExcludeGlobs) == 0 {
		o.ExcludeGlobs = DefaultExcludeGlobs
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.UpdateDebounceMs <= 0 {
		o.UpdateDebounceMs = int(defaultUpdateDebounce / time.Millisecond)
	}
}

// Engine is the Code Intelligence Engine: an in-memory, incrementally
// maintained index of a source tree's ASTs, symbols, and dependency graph.
type Engine struct {
	opts Options

	mu sync.RWMutex

	files        map[string]*FileMetadata        // relPath -> metadata
	parseResults map[string]*ParseResult         // relPath -> last parse result
	symbolIndex  map[string][]SymbolReference     // symbol name -> references
	crossRefs    map[string]*CrossReference       // symbol name -> cross reference
	dependencies map[string]map[string]bool       // relPath -> set of relPaths it imports
	dependents   map[string]map[string]bool       // relPath -> set of relPaths that import it
	parseErrors  map[string][]ParseError          // relPath -> errors

	watcher *watcher
	ready   bool
}

// New constructs an unstarted Engine. Call Initialize to perform the
// cold-start scan and (unless disabled) start the debounced file watcher.
func New(opts Options) *Engine {
	opts.setDefaults()
	return &Engine{
		opts:         opts,
		files:        make(map[string]*FileMetadata),
		parseResults: make(map[string]*ParseResult),
		symbolIndex:  make(map[string][]SymbolReference),
		crossRefs:    make(map[string]*CrossReference),
		dependencies: make(map[string]map[string]bool),
		dependents:   make(map[string]map[string]bool),
		parseErrors:  make(map[string][]ParseError),
	}
}

// Initialize runs the initialization protocol: scan, batch-index, build
// the symbol index and dependency edges, build cross references, and
// (unless disabled) start the debounced watcher.
func (e *Engine) Initialize(ctx context.Context) error {
	start := time.Now()
	logging.Engine("initializing engine at %s", e.opts.Root)

	paths, err := scanTree(e.opts.Root, e.opts.IncludeGlobs, e.opts.ExcludeGlobs)
	if err != nil {
		return fmt.Errorf("scanning tree: %w", err)
	}

	for i := 0; i < len(paths); i += e.opts.BatchSize {
		end := i + e.opts.BatchSize
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[i:end]
		var wg sync.WaitGroup
		for _, rel := range batch {
			wg.Add(1)
			go func(rel string) {
				defer wg.Done()
				e.indexFile(rel)
			}(rel)
		}
		wg.Wait()
	}

	e.buildCrossReferences()

	e.mu.Lock()
	e.ready = true
	e.mu.Unlock()

	logging.Engine("engine ready: %d files indexed in %s", len(paths), time.Since(start))

	if !e.opts.DisableWatcher {
		w, err := newWatcher(e, e.opts.Root, time.Duration(e.opts.UpdateDebounceMs)*time.Millisecond)
		if err != nil {
			logging.EngineWarn("watcher unavailable: %v", err)
		} else {
			e.watcher = w
			w.start(ctx)
		}
	}

	return nil
}

// Stop halts the background watcher, if running.
func (e *Engine) Stop() {
	if e.watcher != nil {
		e.watcher.stop()
	}
}

// IsReady reports whether the initial indexing pass has completed.
func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// indexFile reads, hashes, parses, and indexes one file by its path
// relative to the engine root. Per-file failures are logged and recorded
// in parseErrors; they never fail indexing.
func (e *Engine) indexFile(rel string) {
	abs := filepath.Join(e.opts.Root, rel)
	content, err := os.ReadFile(abs)
	if err != nil {
		logging.EngineWarn("unreadable file %s: %v", rel, err)
		e.mu.Lock()
		e.parseErrors[rel] = []ParseError{{File: rel, Message: err.Error()}}
		e.mu.Unlock()
		return
	}

	hash := contentHash(content)
	lang := detectLanguage(rel)

	start := time.Now()
	result := parseSource(lang, abs, content)
	duration := time.Since(start)

	meta := &FileMetadata{
		RelPath:       rel,
		AbsPath:       abs,
		Language:      lang,
		LastModified:  time.Now(),
		ContentHash:   hash,
		ParseDuration: duration,
		Indexed:       true,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyParseResultLocked(rel, meta, result, string(content))
}

// applyParseResultLocked installs a file's metadata and parse result into
// every index. Caller must hold e.mu.
func (e *Engine) applyParseResultLocked(rel string, meta *FileMetadata, result *ParseResult, content string) {
	e.files[rel] = meta
	e.parseResults[rel] = result

	if len(result.Errors) > 0 {
		errs := make([]ParseError, 0, len(result.Errors))
		for _, msg := range result.Errors {
			errs = append(errs, ParseError{File: rel, Message: msg})
		}
		e.parseErrors[rel] = errs
	} else {
		delete(e.parseErrors, rel)
	}

	for _, sym := range result.Symbols {
		e.symbolIndex[sym.Name] = append(e.symbolIndex[sym.Name], SymbolReference{
			Symbol: sym,
			File:   rel,
			Usages: classifyUsages(content, sym.Name),
		})
	}

	resolved := resolveImports(e.opts.Root, rel, result.Imports)
	if e.dependencies[rel] == nil {
		e.dependencies[rel] = make(map[string]bool)
	}
	for _, dep := range resolved {
		e.dependencies[rel][dep] = true
		if e.dependents[dep] == nil {
			e.dependents[dep] = make(map[string]bool)
		}
		e.dependents[dep][rel] = true
	}
}

// buildCrossReferences builds the CrossReference table: the first
// definitional reference encountered per symbol name wins as Definition,
// and every usage site held in the symbol index is recorded. Usages are
// only collected from files that declare a symbol of that name; a file that
// uses the name without declaring it contributes no reference site.
func (e *Engine) buildCrossReferences() {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.symbolIndex))
	for name := range e.symbolIndex {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		refs := e.symbolIndex[name]
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
