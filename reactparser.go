package scribe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ReActBlock is one reasoning step extracted from a model response:
// what it thought, which tool it invoked, with what input, and
// (once executed) what it observed.
type ReActBlock struct {
	Thought     string
	Action      string
	ActionInput map[string]any
	Observation string
}

var (
	thoughtPattern     = regexp.MustCompile(`(?is)Thought:\s*(.*?)(?:\n(?:Action|Action Input|Observation)|$)`)
	actionPattern      = regexp.MustCompile(`(?is)Action:\s*(.*?)(?:\n(?:Action Input|Observation)|$)`)
	actionInputPattern = regexp.MustCompile(`(?is)Action Input:\s*(.*?)(?:\n(?:Observation)|$)`)
	observationPattern = regexp.MustCompile(`(?is)Observation:\s*(.*?)(?:\n(?:Thought|Action)|$)`)

	toolCallBlockPattern = regexp.MustCompile(`(?s)` + "```json\\s*\\{(.*?)\\}\\s*```")
	simpleToolPattern    = regexp.MustCompile(`(?s)\{(?:[^{}]|\{[^{}]*\})*"tool"(?:[^{}]|\{[^{}]*\})*\}`)
)

// ReActParser extracts ReActBlocks from a raw model response, tolerating
// both a fenced-JSON tool-call style and the natural-language
// Thought/Action/Action Input/Observation style.
type ReActParser struct{}

// NewReActParser returns a parser ready for use; it holds no state.
func NewReActParser() *ReActParser { return &ReActParser{} }

// ParseResponse extracts all ReActBlocks from a response. Structured
// tool calls (fenced ```json blocks or bare {"tool": ...} objects) take
// priority; if none are found it falls back to natural-language
// Thought/Action parsing.
func (p *ReActParser) ParseResponse(response string) []ReActBlock {
	if calls := p.extractToolCalls(response); len(calls) > 0 {
		blocks := make([]ReActBlock, 0, len(calls))
		for _, call := range calls {
			tool, _ := call["tool"].(string)
			if tool == "" {
				tool = "unknown"
			}
			params, _ := call["parameters"].(map[string]any)
			blocks = append(blocks, ReActBlock{
				Thought:     fmt.Sprintf("Using tool %s", tool),
				Action:      tool,
				ActionInput: params,
			})
		}
		return blocks
	}

	var blocks []ReActBlock
	for _, section := range p.splitSections(response) {
		if block, ok := p.parseSection(section); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func (p *ReActParser) extractToolCalls(response string) []map[string]any {
	var calls []map[string]any

	for _, m := range toolCallBlockPattern.FindAllStringSubmatch(response, -1) {
		var call map[string]any
		if err := json.Unmarshal([]byte("{"+m[1]+"}"), &call); err != nil {
			continue
		}
		if _, ok := call["tool"]; ok {
			calls = append(calls, call)
		}
	}

	// Bare objects are searched outside the fenced blocks already parsed.
	for _, m := range simpleToolPattern.FindAllString(toolCallBlockPattern.ReplaceAllString(response, ""), -1) {
		var call map[string]any
		if err := json.Unmarshal([]byte(m), &call); err != nil {
			continue
		}
		if _, ok := call["tool"]; ok {
			calls = append(calls, call)
		}
	}

	return calls
}

func (p *ReActParser) splitSections(response string) []string {
	starts := thoughtPattern.FindAllStringIndex(response, -1)
	if len(starts) == 0 {
		return []string{response}
	}
	sections := make([]string, 0, len(starts))
	for i, s := range starts {
		end := len(response)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		sections = append(sections, response[s[0]:end])
	}
	return sections
}

func (p *ReActParser) parseSection(section string) (ReActBlock, bool) {
	thought := firstGroup(thoughtPattern, section)
	action := firstGroup(actionPattern, section)
	observation := firstGroup(observationPattern, section)

	var actionInput map[string]any
	if raw := firstGroup(actionInputPattern, section); raw != "" {
		actionInput = parseActionInput(raw)
	}

	if thought == "" && action == "" {
		return ReActBlock{}, false
	}

	return ReActBlock{
		Thought:     thought,
		Action:      action,
		ActionInput: actionInput,
		Observation: observation,
	}, true
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func parseActionInput(raw string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}

	if strings.Contains(raw, "=") {
		result := make(map[string]any)
		for _, line := range strings.Split(raw, "\n") {
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			result[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		return result
	}

	return map[string]any{"input": raw}
}

// HasToolCalls reports whether response contains any structured or
// natural-language tool invocation.
func (p *ReActParser) HasToolCalls(response string) bool {
	if len(p.extractToolCalls(response)) > 0 {
		return true
	}
	return actionPattern.MatchString(response)
}

var finalAnswerSplit = regexp.MustCompile(`(?is)(?:Observation:|` + "```json.*?```" + `)`)

// ExtractFinalAnswer returns the trailing free-text answer once a
// response no longer contains tool calls worth executing, or "" if the
// response is still mid-reasoning.
func (p *ReActParser) ExtractFinalAnswer(response string) string {
	if p.HasToolCalls(response) {
		parts := finalAnswerSplit.Split(response, -1)
		if len(parts) > 1 {
			return strings.TrimSpace(parts[len(parts)-1])
		}
		return ""
	}
	if trimmed := strings.TrimSpace(response); len(trimmed) > 20 {
		return trimmed
	}
	return ""
}

// FormatObservation renders a tool result as the next turn's observation.
func (p *ReActParser) FormatObservation(toolName, result string) string {
	return fmt.Sprintf("Observation: %s returned: %s", toolName, result)
}
