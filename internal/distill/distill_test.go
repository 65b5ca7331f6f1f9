package distill

import "testing"

func TestExtractCandidatesFindsOutermostBraces(t *testing.T) {
	response := "Sure, here you go:\n```json\n{\"candidates\":[{\"type\":\"fact\",\"title\":\"t\",\"content\":\"c\"}]}\n```\nHope that helps!"
	candidates, err := extractCandidates(response)
	if err != nil {
		t.Fatalf("extractCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "t" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestExtractCandidatesRejectsNonJSON(t *testing.T) {
	if _, err := extractCandidates("no json here"); err == nil {
		t.Fatalf("expected an error for content with no JSON object")
	}
}

func TestValidateRequiresTaskAssignee(t *testing.T) {
	c := Candidate{Type: "task", Title: "t", Content: "c"}
	errs := c.validate()
	if len(errs) == 0 {
		t.Fatalf("expected validation error for missing task assignee")
	}
}

func TestValidateRequiresRationaleWhenSuperseding(t *testing.T) {
	c := Candidate{Type: "decision", Title: "t", Content: "c", DecisionSupersedes: "abc123"}
	errs := c.validate()
	if len(errs) == 0 {
		t.Fatalf("expected validation error for supersedes without rationale")
	}
}
