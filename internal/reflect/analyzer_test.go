package reflect

import (
	"testing"

	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
)

func TestExtractToolErrorsDetectsFailureIndicator(t *testing.T) {
	snapshot := sessions.Snapshot{Key: "cli:c1", Messages: []sessions.Turn{
		{Role: sessions.RoleTool, ToolName: "shell", Content: "Error: command not found"},
	}}
	findings := AnalyzeSession(snapshot)
	if len(findings) != 1 || findings[0].Kind != memory.ReflectionMistake {
		t.Fatalf("expected one mistake finding, got %+v", findings)
	}
}

func TestFindRepeatedToolCallsRequiresThreeCalls(t *testing.T) {
	turns := make([]sessions.Turn, 0, 5)
	for i := 0; i < 3; i++ {
		turns = append(turns, sessions.Turn{Role: sessions.RoleTool, ToolName: "search", Content: "ok"})
	}
	snapshot := sessions.Snapshot{Key: "cli:c1", Messages: turns}
	findings := AnalyzeSession(snapshot)
	found := false
	for _, f := range findings {
		if f.Kind == memory.ReflectionPattern && f.ToolInvolved == "search" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a repeated-tool-usage pattern finding, got %+v", findings)
	}
}

func TestMultipleMistakesTriggerImprovementFinding(t *testing.T) {
	snapshot := sessions.Snapshot{Key: "cli:c1", Messages: []sessions.Turn{
		{Role: sessions.RoleTool, ToolName: "a", Content: "Error: failed"},
		{Role: sessions.RoleTool, ToolName: "b", Content: "Exception: failed"},
	}}
	findings := AnalyzeSession(snapshot)
	found := false
	for _, f := range findings {
		if f.Kind == memory.ReflectionImprovement {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an improvement finding once 2+ mistakes accumulate, got %+v", findings)
	}
}

func TestValidateRejectsMistakeWithoutErrorPattern(t *testing.T) {
	f := Finding{Kind: memory.ReflectionMistake, Title: "t", Content: "c"}
	if errs := f.Validate(); len(errs) == 0 {
		t.Fatalf("expected validation error for mistake without error pattern")
	}
}

func TestValidateRejectsPatternWithoutFrequency(t *testing.T) {
	f := Finding{Kind: memory.ReflectionPattern, Title: "t", Content: "c"}
	if errs := f.Validate(); len(errs) == 0 {
		t.Fatalf("expected validation error for pattern without frequency")
	}
}
