package report

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError aggregates every problem found in an envelope so the
// caller sees the complete set in one response instead of fixing fields
// one at a time.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + strings.Join(e.Violations, "; ")
}

// Validate checks the envelope shape and returns a typed Submission.
// receivedAt is the server receipt time, used as the arrival timestamp
// when the envelope does not carry one. All violations are collected
// before returning.
func Validate(env Envelope, receivedAt time.Time) (Submission, error) {
	var violations []string

	email := strings.TrimSpace(env.Metadata.SubmitterEmail)
	if email == "" {
		violations = append(violations, "metadata.submitterEmail is required")
	}

	var submissionDate time.Time
	if env.Data.SubmissionDate == "" {
		violations = append(violations, "data.submissionDate is required")
	} else {
		d, err := time.Parse(time.DateOnly, env.Data.SubmissionDate)
		if err != nil {
			violations = append(violations, fmt.Sprintf("data.submissionDate %q is not a valid YYYY-MM-DD date", env.Data.SubmissionDate))
		} else {
			submissionDate = d
		}
	}

	if env.Data.GoodThings == nil {
		violations = append(violations, "data.good_things is required (may be an empty list)")
	}
	if env.Data.Reflections == nil {
		violations = append(violations, "data.reflections is required (may be an empty list)")
	}

	arrivedAt := receivedAt.UTC()
	if env.Metadata.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, env.Metadata.Timestamp)
		if err != nil {
			violations = append(violations, fmt.Sprintf("metadata.timestamp %q is not a valid RFC 3339 timestamp", env.Metadata.Timestamp))
		} else {
			arrivedAt = ts.UTC()
		}
	}

	if len(violations) > 0 {
		return Submission{}, &ValidationError{Violations: violations}
	}

	return Submission{
		SubmitterEmail: email,
		SubmissionDate: submissionDate,
		GoodThings:     *env.Data.GoodThings,
		Reflections:    *env.Data.Reflections,
		Source:         env.Metadata.Source,
		ArrivedAt:      arrivedAt,
	}, nil
}
