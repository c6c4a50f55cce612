package scribe

import "testing"

func TestReActParserParsesNaturalLanguageBlock(t *testing.T) {
	p := NewReActParser()
	response := "Thought: I need to search for information about Python files.\n" +
		"Action: search_code\n" +
		"Action Input: {\"query\": \"python imports\", \"max_results\": 5}"

	blocks := p.ParseResponse(response)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %+v", len(blocks), blocks)
	}
	b := blocks[0]
	if b.Action != "search_code" {
		t.Errorf("expected action search_code, got %q", b.Action)
	}
	if b.ActionInput["query"] != "python imports" {
		t.Errorf("expected query param, got %+v", b.ActionInput)
	}
}

func TestReActParserParsesFencedJSONToolCall(t *testing.T) {
	p := NewReActParser()
	response := "```json\n{\"tool\": \"read_file\", \"parameters\": {\"path\": \"src/main.go\"}}\n```"

	blocks := p.ParseResponse(response)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Action != "read_file" {
		t.Errorf("expected action read_file, got %q", blocks[0].Action)
	}
	if blocks[0].ActionInput["path"] != "src/main.go" {
		t.Errorf("expected path param, got %+v", blocks[0].ActionInput)
	}
}

func TestReActParserActionInputKeyValueFallback(t *testing.T) {
	p := NewReActParser()
	response := "Thought: running a quick check.\nAction: run_sandbox\nAction Input: command=ls -la\ntimeout=30"

	blocks := p.ParseResponse(response)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].ActionInput["command"] != "ls -la" {
		t.Errorf("expected command param, got %+v", blocks[0].ActionInput)
	}
	if blocks[0].ActionInput["timeout"] != "30" {
		t.Errorf("expected timeout param, got %+v", blocks[0].ActionInput)
	}
}

func TestReActParserExtractFinalAnswerWithoutToolCalls(t *testing.T) {
	p := NewReActParser()
	response := "This is the final answer to the user's question about the system architecture."

	answer := p.ExtractFinalAnswer(response)
	if answer != response {
		t.Errorf("expected final answer to equal response, got %q", answer)
	}
}

func TestReActParserExtractFinalAnswerShortResponseNotFinal(t *testing.T) {
	p := NewReActParser()
	if answer := p.ExtractFinalAnswer("too short"); answer != "" {
		t.Errorf("expected no final answer for short response, got %q", answer)
	}
}

func TestReActParserHasToolCallsDetectsActionLine(t *testing.T) {
	p := NewReActParser()
	response := "Thought: let's look.\nAction: search_code\nAction Input: {\"query\": \"x\"}"
	if !p.HasToolCalls(response) {
		t.Error("expected HasToolCalls to detect an Action: line")
	}
}

func TestReActParserFormatObservation(t *testing.T) {
	p := NewReActParser()
	got := p.FormatObservation("search_code", "3 matches")
	want := "Observation: search_code returned: 3 matches"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
