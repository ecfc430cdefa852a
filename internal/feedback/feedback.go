package feedback

import "strconv"

// Feedback is the structured evaluation generated by the model for one
// daily report. OverallRating is kept as a numeric string ("1".."5") for
// wire compatibility with existing consumers.
type Feedback struct {
	OverallRating    string   `json:"overall_rating"`
	PositivePoints   []string `json:"positive_points"`
	ImprovementAreas []string `json:"improvement_areas"`
	ActionItems      []string `json:"action_items"`
	Encouragement    string   `json:"encouragement"`
}

// Rating returns the overall rating as an integer. It assumes the Feedback
// passed parsing; on a malformed rating it returns 0.
func (f Feedback) Rating() int {
	n, err := strconv.Atoi(f.OverallRating)
	if err != nil {
		return 0
	}
	return n
}
