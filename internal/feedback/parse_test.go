package feedback

import (
	"errors"
	"strings"
	"testing"
)

const validResponse = `{
	"overall_rating": "4",
	"positive_points": ["Shipped the API ahead of schedule"],
	"improvement_areas": ["Test runs are slow"],
	"action_items": ["Profile the test suite"],
	"encouragement": "Strong momentum, keep it up."
}`

func TestParse_Valid(t *testing.T) {
	fb, err := Parse(validResponse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.OverallRating != "4" {
		t.Errorf("rating = %q, want %q", fb.OverallRating, "4")
	}
	if fb.Rating() != 4 {
		t.Errorf("Rating() = %d, want 4", fb.Rating())
	}
	if len(fb.PositivePoints) != 1 || fb.PositivePoints[0] != "Shipped the API ahead of schedule" {
		t.Errorf("positive points = %v", fb.PositivePoints)
	}
	if fb.Encouragement == "" {
		t.Error("encouragement empty")
	}
}

func TestParse_CodeFenced(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	fb, err := Parse(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.OverallRating != "4" {
		t.Errorf("rating = %q, want %q", fb.OverallRating, "4")
	}
}

func TestParse_NumericRating(t *testing.T) {
	resp := strings.Replace(validResponse, `"overall_rating": "4"`, `"overall_rating": 5`, 1)
	fb, err := Parse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Always normalized back to a numeric string on the wire.
	if fb.OverallRating != "5" {
		t.Errorf("rating = %q, want %q", fb.OverallRating, "5")
	}
}

func TestParse_EmptyListsAllowed(t *testing.T) {
	resp := `{
		"overall_rating": "3",
		"positive_points": [],
		"improvement_areas": [],
		"action_items": [],
		"encouragement": "Tomorrow is another day."
	}`
	fb, err := Parse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.PositivePoints == nil || len(fb.PositivePoints) != 0 {
		t.Errorf("positive points = %#v, want empty non-nil", fb.PositivePoints)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"not json", "the report looks great!", "invalid JSON"},
		{"missing rating", `{"positive_points":[],"improvement_areas":[],"action_items":[],"encouragement":"x"}`, "overall_rating"},
		{"rating out of range", strings.Replace(validResponse, `"4"`, `"9"`, 1), "out of range"},
		{"rating not numeric", strings.Replace(validResponse, `"4"`, `"high"`, 1), "not an integer"},
		{"missing list", `{"overall_rating":"2","improvement_areas":[],"action_items":[],"encouragement":"x"}`, "positive_points"},
		{"empty encouragement", strings.Replace(validResponse, "Strong momentum, keep it up.", "  ", 1), "encouragement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !strings.Contains(pe.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", pe.Reason, tt.reason)
			}
		})
	}
}

func TestParse_MultipleMissingFieldsListed(t *testing.T) {
	_, err := Parse(`{"overall_rating":"3"}`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	for _, field := range []string{"positive_points", "improvement_areas", "action_items", "encouragement"} {
		if !strings.Contains(pe.Reason, field) {
			t.Errorf("reason %q missing %q", pe.Reason, field)
		}
	}
}
