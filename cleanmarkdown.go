package scribe

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// MDSection is one heading-delimited block of a markdown document.
type MDSection struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
	Raw     string `json:"raw"`
}

// MDInfo is a parsed markdown document: its frontmatter, sections, and
// basic size stats.
type MDInfo struct {
	Path        string                 `json:"path"`
	Sections    []MDSection            `json:"sections"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	WordCount   int                    `json:"word_count"`
	LineCount   int                    `json:"line_count"`
}

// ParseMarkdown splits frontmatter, walks the document's heading tree
// via goldmark, and returns each section's title, level, and content.
func ParseMarkdown(path string) (MDInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MDInfo{}, err
	}
	frontmatter, body := splitFrontmatter(string(raw))

	sections := parseSections([]byte(body))

	return MDInfo{
		Path:        path,
		Sections:    sections,
		Frontmatter: frontmatter,
		WordCount:   len(strings.Fields(body)),
		LineCount:   len(strings.Split(body, "\n")),
	}, nil
}

func splitFrontmatter(text string) (map[string]interface{}, string) {
	if !strings.HasPrefix(text, "---\n") {
		return nil, text
	}
	end := strings.Index(text[4:], "\n---\n")
	if end == -1 {
		return nil, text
	}
	raw := text[4 : 4+end]
	body := text[4+end+len("\n---\n"):]

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, text
	}
	return fm, body
}

// parseSections walks goldmark's block AST and slices body into
// heading-delimited sections, carrying each heading's raw source text.
func parseSections(body []byte) []MDSection {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	type headingMark struct {
		level     int
		title     string
		start     int
		lineStart int
	}
	var marks []headingMark

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		first := lines.At(0)
		marks = append(marks, headingMark{
			level:     h.Level,
			title:     strings.TrimSpace(string(first.Value(body))),
			start:     first.Start,
			lineStart: strings.LastIndexByte(string(body[:first.Start]), '\n') + 1,
		})
		return ast.WalkContinue, nil
	})

	if len(marks) == 0 {
		return nil
	}

	sort.Slice(marks, func(i, j int) bool { return marks[i].start < marks[j].start })

	sections := make([]MDSection, 0, len(marks))
	for i, m := range marks {
		contentStart := m.start
		if nl := strings.IndexByte(string(body[m.start:]), '\n'); nl != -1 {
			contentStart = m.start + nl + 1
		}
		end := len(body)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		content := ""
		if contentStart < end {
			content = strings.TrimSpace(string(body[contentStart:end]))
		}
		raw := fmt.Sprintf("%s %s\n%s", strings.Repeat("#", m.level), m.title, content)
		sections = append(sections, MDSection{Title: m.title, Level: m.level, Content: content, Raw: raw})
	}
	return sections
}

// SuggestMDCleaning proposes dedupe/timestamp/empty-section/sort steps.
func SuggestMDCleaning(info MDInfo) []CleaningStep {
	var steps []CleaningStep

	counts := map[string]int{}
	for _, s := range info.Sections {
		counts[strings.ToLower(s.Title)]++
	}
	var dupTitles []string
	for title, n := range counts {
		if n > 1 {
			dupTitles = append(dupTitles, title)
		}
	}
	sort.Strings(dupTitles)
	for _, title := range dupTitles {
		steps = append(steps, CleaningStep{Type: "dedupe_sections", Column: title, Reason: fmt.Sprintf("%d duplicates", counts[title])})
	}

	if len(info.Sections) > 0 && hasTimestampPattern(info.Sections[0].Raw) {
		steps = append(steps, CleaningStep{Type: "normalize_timestamps", Reason: "inconsistent timestamp formats"})
	}

	emptyCount := 0
	for _, s := range info.Sections {
		if strings.TrimSpace(s.Content) == "" {
			emptyCount++
		}
	}
	if emptyCount > 0 {
		steps = append(steps, CleaningStep{Type: "collapse_empty_sections", Reason: fmt.Sprintf("%d empty", emptyCount)})
	}

	for _, s := range info.Sections {
		if s.Level > 2 {
			steps = append(steps, CleaningStep{Type: "sort_sections", Reason: "deep subsections detected"})
			break
		}
	}
	return steps
}

var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(AM|PM|am|pm)\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
}

func hasTimestampPattern(s string) bool {
	for _, p := range timestampPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// MDCleanResult reports the section count before/after cleaning.
type MDCleanResult struct {
	OriginalSections int            `json:"original_sections"`
	CleanedSections  int            `json:"cleaned_sections"`
	OutputPath       string         `json:"output_path"`
	StepsApplied     []CleaningStep `json:"steps_applied"`
}

var timestampTimeRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(AM|PM|am|pm)\b`)
var timestampDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)

// CleanMarkdown applies steps to info.Sections and writes the result.
func CleanMarkdown(info MDInfo, steps []CleaningStep, outputPath string) (MDCleanResult, error) {
	sections := append([]MDSection(nil), info.Sections...)

	for _, step := range steps {
		switch step.Type {
		case "dedupe_sections":
			sections = dedupeSections(sections, step.Column)
		case "normalize_timestamps":
			for i := range sections {
				sections[i].Raw = timestampTimeRe.ReplaceAllString(sections[i].Raw, "$1:$2 $3")
				sections[i].Raw = timestampDateRe.ReplaceAllString(sections[i].Raw, "$3-$2-$1")
			}
		case "collapse_empty_sections":
			sections = filterNonEmpty(sections)
		case "sort_sections":
			sort.SliceStable(sections, func(i, j int) bool {
				if sections[i].Level != sections[j].Level {
					return sections[i].Level < sections[j].Level
				}
				return strings.ToLower(sections[i].Title) < strings.ToLower(sections[j].Title)
			})
		}
	}

	var b strings.Builder
	if info.Frontmatter != nil {
		b.WriteString("---\n")
		fmBytes, _ := yaml.Marshal(info.Frontmatter)
		b.Write(fmBytes)
		b.WriteString("---\n\n")
	}
	for _, s := range sections {
		b.WriteString(s.Raw)
		b.WriteString("\n\n")
	}

	if err := os.WriteFile(outputPath, []byte(b.String()), 0o644); err != nil {
		return MDCleanResult{}, err
	}

	return MDCleanResult{
		OriginalSections: len(info.Sections),
		CleanedSections:  len(sections),
		OutputPath:       outputPath,
		StepsApplied:     steps,
	}, nil
}

func dedupeSections(sections []MDSection, title string) []MDSection {
	seen := false
	out := make([]MDSection, 0, len(sections))
	for _, s := range sections {
		if strings.ToLower(s.Title) == title {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, s)
	}
	return out
}

func filterNonEmpty(sections []MDSection) []MDSection {
	out := make([]MDSection, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Content) != "" {
			out = append(out, s)
		}
	}
	return out
}
