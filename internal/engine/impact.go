package engine

import "sort"

// AnalyzeImpact implements spec §4.1's analyzeImpact(file, symbol?):
// when symbol is given, the affected set is every file in its
// CrossReference (the files that declare a symbol of that name);
// otherwise it's file plus its direct dependents. Cycles are found by DFS
// over dependency edges restricted to the affected set. Risk is high if
// more than 10 files are affected or a cycle exists, medium if more than
// 5 files or 10 symbols are affected, else low.
func (e *Engine) AnalyzeImpact(file string, symbol string) ImpactAnalysis {
	e.mu.RLock()

	var affectedFiles map[string]bool
	var affectedSymbols []string

	if symbol != "" {
		affectedFiles = make(map[string]bool)
		if ref, ok := e.crossRefs[symbol]; ok {
			affectedFiles[ref.Definition.File] = true
			for _, site := range ref.References {
				affectedFiles[site.File] = true
			}
		}
		affectedSymbols = []string{symbol}
	} else {
		affectedFiles = map[string]bool{file: true}
		for dep := range e.dependents[file] {
			affectedFiles[dep] = true
		}
		seen := make(map[string]bool)
		for _, refs := range e.symbolIndex {
			for _, r := range refs {
				if r.File == file && !seen[r.Symbol.Name] {
					seen[r.Symbol.Name] = true
					affectedSymbols = append(affectedSymbols, r.Symbol.Name)
				}
			}
		}
		sort.Strings(affectedSymbols)
	}

	cycles := e.findCyclesLocked(file, affectedFiles)
	e.mu.RUnlock()

	fileList := make([]string, 0, len(affectedFiles))
	for f := range affectedFiles {
		fileList = append(fileList, f)
	}
	sort.Strings(fileList)

	risk := RiskLow
	switch {
	case len(fileList) > 10 || len(cycles) > 0:
		risk = RiskHigh
	case len(fileList) > 5 || len(affectedSymbols) > 10:
		risk = RiskMedium
	}

	return ImpactAnalysis{
		AffectedFiles:   fileList,
		AffectedSymbols: affectedSymbols,
		Cycles:          cycles,
		Risk:            risk,
	}
}

// findCyclesLocked runs a DFS from start over dependency edges restricted
// to affected, recording the path; any back-edge to a node already on the
// current path yields a cycle. Caller must hold e.mu (read or write).
func (e *Engine) findCyclesLocked(start string, affected map[string]bool) [][]string {
	var cycles [][]string
	onPath := make(map[string]int) // node -> index in path
	var path []string

	var visit func(node string)
	visit = func(node string) {
		onPath[node] = len(path)
		path = append(path, node)

		for dep := range e.dependencies[node] {
			if !affected[dep] {
				continue
			}
			if idx, inPath := onPath[dep]; inPath {
				cycle := append([]string{}, path[idx:]...)
				cycle = append(cycle, dep)
				cycles = append(cycles, cycle)
				continue
			}
			visit(dep)
		}

		path = path[:len(path)-1]
		delete(onPath, node)
	}

	visit(start)
	return cycles
}
