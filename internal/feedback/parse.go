package feedback

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a structurally invalid model response. The pipeline
// treats it as fatal: no partially filled Feedback is ever produced.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "parsing model response: " + e.Reason
}

// rawFeedback mirrors the model's JSON output. List fields are pointers so
// a missing field can be told apart from an empty list, and the rating is
// kept raw because models return it as either a string or a number.
type rawFeedback struct {
	OverallRating    json.RawMessage `json:"overall_rating"`
	PositivePoints   *[]string       `json:"positive_points"`
	ImprovementAreas *[]string       `json:"improvement_areas"`
	ActionItems      *[]string       `json:"action_items"`
	Encouragement    string          `json:"encouragement"`
}

// Parse decodes and validates the raw model output into a Feedback.
// It tolerates markdown code fences around the JSON body. All fields are
// validated before anything is returned: the rating must be an integer in
// [1,5], the three list fields must be present (empty is fine), and the
// encouragement must be a non-empty string.
func Parse(raw string) (Feedback, error) {
	cleaned := trimFences(raw)

	var rf rawFeedback
	if err := json.Unmarshal([]byte(cleaned), &rf); err != nil {
		return Feedback{}, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}

	rating, err := parseRating(rf.OverallRating)
	if err != nil {
		return Feedback{}, &ParseError{Reason: err.Error(), Raw: raw}
	}

	var missing []string
	if rf.PositivePoints == nil {
		missing = append(missing, "positive_points")
	}
	if rf.ImprovementAreas == nil {
		missing = append(missing, "improvement_areas")
	}
	if rf.ActionItems == nil {
		missing = append(missing, "action_items")
	}
	if strings.TrimSpace(rf.Encouragement) == "" {
		missing = append(missing, "encouragement")
	}
	if len(missing) > 0 {
		return Feedback{}, &ParseError{
			Reason: "missing required fields: " + strings.Join(missing, ", "),
			Raw:    raw,
		}
	}

	return Feedback{
		OverallRating:    strconv.Itoa(rating),
		PositivePoints:   *rf.PositivePoints,
		ImprovementAreas: *rf.ImprovementAreas,
		ActionItems:      *rf.ActionItems,
		Encouragement:    rf.Encouragement,
	}, nil
}

// parseRating accepts the rating as a JSON number or a numeric string and
// enforces the [1,5] range.
func parseRating(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing required fields: overall_rating")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, fmt.Errorf("overall_rating is neither a number nor a numeric string: %s", raw)
		}
		return checkRange(n)
	}

	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("overall_rating %q is not an integer", s)
	}
	return checkRange(n)
}

func checkRange(n int) (int, error) {
	if n < 1 || n > 5 {
		return 0, fmt.Errorf("overall_rating %d out of range [1,5]", n)
	}
	return n, nil
}

// trimFences strips a surrounding markdown code fence, which some models
// emit even when asked for bare JSON.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
