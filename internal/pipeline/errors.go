package pipeline

import "github.com/kalambet/hansei/internal/feedback"

// Kind identifies which stage of the pipeline failed. Each kind maps to a
// distinct outward error code in the API response.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindHistory    Kind = "history_lookup_error"
	KindAuth       Kind = "auth_error"
	KindThrottled  Kind = "throttled_error"
	KindTransient  Kind = "transient_error"
	KindUpstream   Kind = "upstream_error"
	KindParse      Kind = "parse_error"
	KindStorage    Kind = "storage_error"
)

// Error is a pipeline failure with its stage classification. When only
// persistence failed, Feedback carries the already-generated result so the
// caller does not lose it even though nothing was durably saved.
type Error struct {
	Kind     Kind
	Err      error
	Feedback *feedback.Feedback
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func stageError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
