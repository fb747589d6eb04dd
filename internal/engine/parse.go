package engine

import (
	"context"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// astCache holds the last-parsed tree-sitter tree per file, keyed by
// absolute path, so getAST(file) can serve the concrete node tree without
// reparsing. Trees are tree-sitter resources, closed on replacement.
var (
	astCacheMu sync.RWMutex
	astCache   = map[string]*sitter.Tree{}
)

// parseSource dispatches to the tolerant tree-sitter parser for lang and
// walks the resulting tree into a ParseResult, per spec §4.1's parsing
// contract. Parse failures are recorded in the result's Errors and never
// propagate — indexing continues with an empty symbol/import set.
func parseSource(lang, absPath string, content []byte) *ParseResult {
	var language *sitter.Language
	switch lang {
	case "javascript", "jsx":
		language = javascript.GetLanguage()
	case "typescript":
		language = typescript.GetLanguage()
	case "tsx":
		language = tsx.GetLanguage()
	case "python":
		language = python.GetLanguage()
	default:
		return regexParse(content)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return &ParseResult{Errors: []string{err.Error()}}
	}

	root := tree.RootNode()
	if root.HasError() {
		// Tolerant parser: still walk what parsed, but note the error.
		defer func() {
			astCacheMu.Lock()
			if old, ok := astCache[absPath]; ok {
				old.Close()
			}
			astCache[absPath] = tree
			astCacheMu.Unlock()
		}()
		result := walkTree(lang, root, content)
		result.Errors = append(result.Errors, "parse tree contains error nodes")
		return result
	}

	astCacheMu.Lock()
	if old, ok := astCache[absPath]; ok {
		old.Close()
	}
	astCache[absPath] = tree
	astCacheMu.Unlock()

	return walkTree(lang, root, content)
}

// getCachedTree returns the last tree-sitter tree parsed for absPath, if
// any, backing the getAST(file) query.
func getCachedTree(absPath string) (*sitter.Tree, bool) {
	astCacheMu.RLock()
	defer astCacheMu.RUnlock()
	t, ok := astCache[absPath]
	return t, ok
}

// walkTree dispatches to the per-language symbol-extraction walker,
// grounded on the teacher's extractJSSymbols/extractTSSymbols/
// extractPythonSymbols AST walks.
func walkTree(lang string, root *sitter.Node, content []byte) *ParseResult {
	switch lang {
	case "python":
		return walkPython(root, content)
	default:
		return walkJSFamily(root, content, lang == "tsx" || lang == "jsx")
	}
}

func nodeText(n *sitter.Node, content []byte) string {
	return n.Content(content)
}

func hasExportParent(n *sitter.Node) bool {
	p := n.Parent()
	return p != nil && p.Type() == "export_statement"
}

// walkJSFamily extracts functions, classes (with methods), variable
// declarations, interfaces, enums, type aliases, and import specifiers
// from a JS/JSX/TS/TSX tree, per spec §4.1's TS/JS symbol-extraction list.
func walkJSFamily(root *sitter.Node, content []byte, jsx bool) *ParseResult {
	result := &ParseResult{}

	var walk func(n *sitter.Node, scope string)
	walk = func(n *sitter.Node, scope string) {
		switch n.Type() {
		case "function_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				result.Symbols = append(result.Symbols, Symbol{
					Name:   nodeText(name, content),
					Kind:   KindFunction,
					Start:  Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:    Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
					Scope:  scope,
					Async:  strings.Contains(nodeText(n, content), "async "),
					Params: extractParams(n.ChildByFieldName("parameters"), content),
				})
			}
		case "class_declaration":
			className := ""
			if name := n.ChildByFieldName("name"); name != nil {
				className = nodeText(name, content)
				result.Symbols = append(result.Symbols, Symbol{
					Name:  className,
					Kind:  KindClass,
					Start: Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:   Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
					Scope: scope,
				})
			}
			if body := n.ChildByFieldName("body"); body != nil {
				walkClassBody(body, content, className, result)
			}
			return // methods handled; don't descend generically
		case "lexical_declaration", "variable_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() != "variable_declarator" {
					continue
				}
				if name := child.ChildByFieldName("name"); name != nil {
					result.Symbols = append(result.Symbols, Symbol{
						Name:  nodeText(name, content),
						Kind:  KindVariable,
						Start: Position{Row: int(child.StartPoint().Row), Column: int(child.StartPoint().Column)},
						End:   Position{Row: int(child.EndPoint().Row), Column: int(child.EndPoint().Column)},
						Scope: scope,
					})
				}
			}
		case "interface_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				result.Symbols = append(result.Symbols, Symbol{
					Name: nodeText(name, content), Kind: KindInterface, Scope: scope,
					Start: Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:   Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
				})
			}
		case "enum_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				result.Symbols = append(result.Symbols, Symbol{
					Name: nodeText(name, content), Kind: KindEnum, Scope: scope,
					Start: Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:   Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
				})
			}
		case "type_alias_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				result.Symbols = append(result.Symbols, Symbol{
					Name: nodeText(name, content), Kind: KindType, Scope: scope,
					Start: Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:   Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
				})
			}
		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				result.Imports = append(result.Imports, strings.Trim(nodeText(src, content), `"'`))
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), scope)
		}
	}

	walk(root, "global")
	_ = jsx
	return result
}

// walkClassBody extracts method declarations from a class body, tagging
// each with accessibility, static, and async flags and a "Class.method"
// scope, per spec §4.1.
func walkClassBody(body *sitter.Node, content []byte, className string, result *ParseResult) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}
		name := member.ChildByFieldName("name")
		if name == nil {
			continue
		}
		text := nodeText(member, content)
		sym := Symbol{
			Name:   nodeText(name, content),
			Kind:   KindMethod,
			Start:  Position{Row: int(member.StartPoint().Row), Column: int(member.StartPoint().Column)},
			End:    Position{Row: int(member.EndPoint().Row), Column: int(member.EndPoint().Column)},
			Scope:  className + "." + nodeText(name, content),
			Static: strings.Contains(text, "static "),
			Async:  strings.Contains(text, "async "),
			Params: extractParams(member.ChildByFieldName("parameters"), content),
		}
		if strings.Contains(text, "private ") {
			sym.Accessibility = "private"
		} else if strings.Contains(text, "protected ") {
			sym.Accessibility = "protected"
		} else {
			sym.Accessibility = "public"
		}
		result.Symbols = append(result.Symbols, sym)
	}
}

func extractParams(paramsNode *sitter.Node, content []byte) []Parameter {
	if paramsNode == nil {
		return nil
	}
	var params []Parameter
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		p := paramsNode.NamedChild(i)
		name := nodeText(p, content)
		typeHint := ""
		if idx := strings.Index(name, ":"); idx != -1 {
			typeHint = strings.TrimSpace(name[idx+1:])
			name = strings.TrimSpace(name[:idx])
		}
		params = append(params, Parameter{Name: name, TypeHint: typeHint})
	}
	return params
}

// walkPython extracts function and class definitions and import
// statements from a Python tree, grounded on the teacher's
// extractPythonSymbols.
func walkPython(root *sitter.Node, content []byte) *ParseResult {
	result := &ParseResult{}

	var walk func(n *sitter.Node, scope string)
	walk = func(n *sitter.Node, scope string) {
		switch n.Type() {
		case "function_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				result.Symbols = append(result.Symbols, Symbol{
					Name:   nodeText(name, content),
					Kind:   symbolKindForPyFunc(scope),
					Start:  Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:    Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
					Scope:  scope,
					Params: extractParams(n.ChildByFieldName("parameters"), content),
				})
			}
		case "class_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				className := nodeText(name, content)
				result.Symbols = append(result.Symbols, Symbol{
					Name: className, Kind: KindClass, Scope: scope,
					Start: Position{Row: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
					End:   Position{Row: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
				})
				if body := n.ChildByFieldName("body"); body != nil {
					for i := 0; i < int(body.ChildCount()); i++ {
						walk(body.Child(i), className)
					}
				}
				return
			}
		case "import_statement", "import_from_statement":
			result.Imports = append(result.Imports, pythonImportSpec(n, content))
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), scope)
		}
	}
	walk(root, "global")
	return result
}

func symbolKindForPyFunc(scope string) SymbolKind {
	if scope != "global" {
		return KindMethod
	}
	return KindFunction
}

func pythonImportSpec(n *sitter.Node, content []byte) string {
	text := nodeText(n, content)
	text = strings.TrimSpace(strings.TrimPrefix(text, "from"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
	if idx := strings.Index(text, " import "); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// regexParse is the tolerant fallback for languages/files the tree-sitter
// dispatch doesn't cover (or when tree-sitter grammars are unavailable at
// build time): it extracts a best-effort symbol and import list with
// plain regexes so indexing never blocks on parser availability.
var (
	fallbackFuncRe   = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)`)
	fallbackClassRe  = regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+(\w+)`)
	fallbackImportRe = regexp.MustCompile(`(?m)^\s*import\s+.*?from\s+['"]([^'"]+)['"]`)
)

func regexParse(content []byte) *ParseResult {
	text := string(content)
	result := &ParseResult{}
	for _, m := range fallbackFuncRe.FindAllStringSubmatch(text, -1) {
		result.Symbols = append(result.Symbols, Symbol{Name: m[1], Kind: KindFunction, Scope: "global"})
	}
	for _, m := range fallbackClassRe.FindAllStringSubmatch(text, -1) {
		result.Symbols = append(result.Symbols, Symbol{Name: m[1], Kind: KindClass, Scope: "global"})
	}
	for _, m := range fallbackImportRe.FindAllStringSubmatch(text, -1) {
		result.Imports = append(result.Imports, m[1])
	}
	return result
}
