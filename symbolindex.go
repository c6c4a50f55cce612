package scribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"regexp"
	"sync"

	"golang.org/x/text/cases"

	"github.com/arcoslabs/scribe/store/symbolstore"
)

const symbolIndexParserVersion = "go-ast-v1"
const maxSymbolFileSize = 256_000

// SymbolIndex extracts definition and usage sites for identifiers across
// a file set. Go source is parsed with go/ast; any other text file falls
// back to a token scan, since the manifest this indexes may include
// non-Go repositories. Lookup keys are folded through a single
// case-insensitive normalization (no separate exact-then-lowercase
// tiers), matching the literal "case-folded lookup" wording of the spec.
type SymbolIndex struct {
	mu      sync.Mutex
	defs    map[string][]SymbolDef
	uses    map[string][]SymbolUse
	indexed map[string]bool
	cas     *ContentStore
	side    *symbolstore.Store
	fold    cases.Caser
}

// NewSymbolIndex creates an empty index. cas may be nil to disable
// per-file summary caching.
func NewSymbolIndex(cas *ContentStore) *SymbolIndex {
	return &SymbolIndex{
		defs:    make(map[string][]SymbolDef),
		uses:    make(map[string][]SymbolUse),
		indexed: make(map[string]bool),
		cas:     cas,
		fold:    cases.Fold(),
	}
}

// WithSideStore attaches a durable SQLite-backed side-index so repeat
// runs across process restarts skip re-parsing entirely, not just within
// a single SymbolIndex's lifetime. Returns idx for chaining.
func (idx *SymbolIndex) WithSideStore(side *symbolstore.Store) *SymbolIndex {
	idx.side = side
	return idx
}

func (idx *SymbolIndex) foldKey(name string) string {
	return idx.fold.String(name)
}

// IndexPaths indexes each path not already indexed. Unreadable or
// unparsable files are skipped silently — a broken file never aborts
// indexing of the rest of the manifest.
func (idx *SymbolIndex) IndexPaths(paths []string) {
	for _, p := range paths {
		idx.mu.Lock()
		already := idx.indexed[p]
		idx.mu.Unlock()
		if already {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.Size() > maxSymbolFileSize {
			continue
		}
		idx.indexFile(p)
		idx.mu.Lock()
		idx.indexed[p] = true
		idx.mu.Unlock()
	}
}

type symbolSummary struct {
	Defs map[string][]int `json:"defs"`
	Uses map[string][]int `json:"uses"`
}

func (idx *SymbolIndex) indexFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	key := MakeKey(data, symbolIndexParserVersion)

	if idx.side != nil {
		if defs, uses, err := idx.side.Get(context.Background(), key); err == nil && (len(defs) > 0 || len(uses) > 0) {
			idx.mergeFromStore(path, defs, uses)
			return
		}
	}

	if idx.cas != nil {
		if cached, _, _ := idx.cas.Get(key); cached != nil {
			var summary symbolSummary
			if json.Unmarshal(cached, &summary) == nil {
				idx.merge(path, summary)
				idx.storeSide(key, summary)
				return
			}
			// Cache corrupted; fall through to re-parse.
		}
	}

	var summary symbolSummary
	if isGoFile(path) {
		summary = parseGoSymbols(data)
	} else {
		summary = scanTokenSymbols(data)
	}
	idx.merge(path, summary)

	if idx.cas != nil {
		if encoded, err := json.Marshal(summary); err == nil {
			idx.cas.PutAt(key, encoded, BlobMeta{
				URL:           "file://" + path,
				ContentType:   "application/json",
				ParserVersion: symbolIndexParserVersion,
			})
		}
	}
	idx.storeSide(key, summary)
}

func (idx *SymbolIndex) storeSide(key string, summary symbolSummary) {
	if idx.side == nil {
		return
	}
	var defs, uses []symbolstore.Symbol
	for name, lines := range summary.Defs {
		for _, line := range lines {
			defs = append(defs, symbolstore.Symbol{Name: name, Line: line})
		}
	}
	for name, lines := range summary.Uses {
		for _, line := range lines {
			uses = append(uses, symbolstore.Symbol{Name: name, Line: line})
		}
	}
	idx.side.Put(context.Background(), key, defs, uses)
}

func (idx *SymbolIndex) mergeFromStore(path string, defs, uses []symbolstore.Symbol) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, d := range defs {
		idx.defs[d.Name] = append(idx.defs[d.Name], SymbolDef{Name: d.Name, Path: path, Line: d.Line})
	}
	for _, u := range uses {
		idx.uses[u.Name] = append(idx.uses[u.Name], SymbolUse{Name: u.Name, Path: path, Line: u.Line})
	}
}

func (idx *SymbolIndex) merge(path string, summary symbolSummary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for name, lines := range summary.Defs {
		for _, line := range lines {
			idx.defs[name] = append(idx.defs[name], SymbolDef{Name: name, Path: path, Line: line})
		}
	}
	for name, lines := range summary.Uses {
		for _, line := range lines {
			idx.uses[name] = append(idx.uses[name], SymbolUse{Name: name, Path: path, Line: line})
		}
	}
}

// FindDefinitions returns definition sites for name, folded to lowercase.
func (idx *SymbolIndex) FindDefinitions(name string) []SymbolDef {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return append([]SymbolDef(nil), idx.defs[idx.foldKey(name)]...)
}

// FindUsages returns usage sites for name, folded to lowercase.
func (idx *SymbolIndex) FindUsages(name string) []SymbolUse {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return append([]SymbolUse(nil), idx.uses[idx.foldKey(name)]...)
}

func isGoFile(path string) bool {
	return len(path) > 3 && path[len(path)-3:] == ".go"
}

// parseGoSymbols extracts function/method/type definitions and
// identifier uses from Go source via go/ast.
func parseGoSymbols(src []byte) symbolSummary {
	summary := symbolSummary{Defs: map[string][]int{}, Uses: map[string][]int{}}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.SkipObjectResolution)
	if err != nil {
		return summary
	}
	fold := cases.Fold()

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.FuncDecl:
			key := fold.String(decl.Name.Name)
			summary.Defs[key] = append(summary.Defs[key], fset.Position(decl.Name.Pos()).Line)
		case *ast.TypeSpec:
			key := fold.String(decl.Name.Name)
			summary.Defs[key] = append(summary.Defs[key], fset.Position(decl.Name.Pos()).Line)
		case *ast.Ident:
			key := fold.String(decl.Name)
			summary.Uses[key] = append(summary.Uses[key], fset.Position(decl.Pos()).Line)
		}
		return true
	})
	return summary
}

var tokenPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// scanTokenSymbols treats every identifier-shaped token as a use; it
// cannot distinguish definitions from uses without language-specific
// syntax, so non-Go files only ever contribute to FindUsages.
func scanTokenSymbols(src []byte) symbolSummary {
	summary := symbolSummary{Defs: map[string][]int{}, Uses: map[string][]int{}}
	fold := cases.Fold()
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		for _, tok := range tokenPattern.FindAllString(scanner.Text(), -1) {
			key := fold.String(tok)
			summary.Uses[key] = append(summary.Uses[key], line)
		}
	}
	return summary
}
