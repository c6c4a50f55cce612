package scribe

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const codeSearchMaxFileSize = 256_000

var searchTermPattern = regexp.MustCompile(`\w+`)

var binaryExtensions = map[string]bool{
	".pyc": true, ".pyo": true, ".so": true, ".dll": true, ".exe": true,
}

// CodeSearch answers free-text queries over a file tree, surfacing
// symbol definitions and usages ahead of plain substring matches.
type CodeSearch struct {
	root      string
	maxHits   int
	symIndex  *SymbolIndex
}

// NewCodeSearch creates a CodeSearch rooted at root. cas may be nil to
// disable symbol-summary caching.
func NewCodeSearch(root string, cas *ContentStore) *CodeSearch {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &CodeSearch{
		root:     abs,
		maxHits:  10,
		symIndex: NewSymbolIndex(cas),
	}
}

// Search tokenizes query into lowercase word terms longer than two
// characters and returns up to maxResults hits. Symbol definitions and
// usages are surfaced first as higher-value evidence, followed by plain
// all-terms-present line matches.
func (s *CodeSearch) Search(query string, paths []string, maxResults int) []SearchHit {
	if maxResults <= 0 {
		maxResults = s.maxHits
	}
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil
	}

	targetPaths := paths
	if targetPaths == nil {
		targetPaths = s.walkAll()
	}

	hits := s.symbolHits(terms, targetPaths, maxResults)

	for _, path := range targetPaths {
		if len(hits) >= maxResults {
			break
		}
		if !s.isTextFile(path) {
			continue
		}
		lines, err := readLines(path)
		if err != nil {
			continue
		}
		for i, line := range lines {
			if len(hits) >= maxResults {
				break
			}
			lower := strings.ToLower(line)
			if allTermsPresent(lower, terms) && !hasHit(hits, path, i+1) {
				hits = append(hits, SearchHit{Path: path, Line: i + 1, Snippet: strings.TrimSpace(line)})
			}
		}
	}
	return hits
}

func (s *CodeSearch) symbolHits(terms []string, paths []string, maxResults int) []SearchHit {
	s.symIndex.IndexPaths(paths)
	var results []SearchHit
	for _, t := range terms {
		for _, def := range s.symIndex.FindDefinitions(t) {
			if hasHit(results, def.Path, def.Line) {
				continue
			}
			results = append(results, SearchHit{Path: def.Path, Line: def.Line, Snippet: readLine(def.Path, def.Line)})
			if len(results) >= maxResults {
				return results
			}
		}
		for _, use := range s.symIndex.FindUsages(t) {
			if hasHit(results, use.Path, use.Line) {
				continue
			}
			results = append(results, SearchHit{Path: use.Path, Line: use.Line, Snippet: readLine(use.Path, use.Line)})
			if len(results) >= maxResults {
				return results
			}
		}
	}
	return results
}

func (s *CodeSearch) walkAll() []string {
	var paths []string
	filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths
}

func (s *CodeSearch) isTextFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() > codeSearchMaxFileSize {
		return false
	}
	if strings.Contains(path, string(filepath.Separator)+".git"+string(filepath.Separator)) ||
		strings.HasPrefix(filepath.Base(path), ".git") {
		return false
	}
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 1024)
	n, _ := f.Read(buf)
	for _, b := range buf[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}

func searchTerms(query string) []string {
	var terms []string
	for _, t := range searchTermPattern.FindAllString(strings.ToLower(query), -1) {
		if len(t) > 2 {
			terms = append(terms, t)
		}
	}
	return terms
}

func allTermsPresent(line string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(line, t) {
			return false
		}
	}
	return true
}

func hasHit(hits []SearchHit, path string, line int) bool {
	for _, h := range hits {
		if h.Path == path && h.Line == line {
			return true
		}
	}
	return false
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

func readLine(path string, lineNo int) string {
	lines, err := readLines(path)
	if err != nil || lineNo < 1 || lineNo > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[lineNo-1])
}
