package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kalambet/hansei/internal/feedback"
	"github.com/kalambet/hansei/internal/report"
	"github.com/kalambet/hansei/internal/storage"
)

const defaultLookupTimeout = 5 * time.Second

// PreviousReport pairs a prior submission with the feedback it received.
type PreviousReport struct {
	Submission report.Submission
	Feedback   feedback.Feedback
}

// LookupError signals that the store was unreachable or misbehaving during
// a history read. It is distinct from an empty result set, which is a
// normal outcome for first-time submitters.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("looking up report history: %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// DocumentLister is the read slice of the store the repository needs.
type DocumentLister interface {
	ListPreviousDocuments(ctx context.Context, submitterEmail, beforeDate string, limit int) ([]storage.FeedbackDocument, error)
}

// Repository reads a submitter's most recent prior reports.
type Repository struct {
	store   DocumentLister
	depth   int
	timeout time.Duration
}

// NewRepository creates a Repository with the configured lookup depth.
// depth <= 0 defaults to 1; timeout <= 0 defaults to 5s.
func NewRepository(store DocumentLister, depth int, timeout time.Duration) *Repository {
	if depth <= 0 {
		depth = 1
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Repository{store: store, depth: depth, timeout: timeout}
}

// MostRecent returns up to the configured depth of prior reports for the
// submitter, most recent submission date first, strictly before
// beforeDate (YYYY-MM-DD). An empty slice with a nil error means the
// submitter simply has no history.
func (r *Repository) MostRecent(ctx context.Context, submitterEmail, beforeDate string) ([]PreviousReport, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	docs, err := r.store.ListPreviousDocuments(ctx, submitterEmail, beforeDate, r.depth)
	if err != nil {
		return nil, &LookupError{Err: err}
	}

	reports := make([]PreviousReport, 0, len(docs))
	for _, doc := range docs {
		prev, err := decodeDocument(doc)
		if err != nil {
			// A document that no longer decodes is treated as a store
			// fault, not as missing history.
			return nil, &LookupError{Err: fmt.Errorf("decoding document %s: %w", doc.ID, err)}
		}
		reports = append(reports, prev)
	}
	return reports, nil
}

func decodeDocument(doc storage.FeedbackDocument) (PreviousReport, error) {
	date, err := time.Parse(time.DateOnly, doc.SubmissionDate)
	if err != nil {
		return PreviousReport{}, fmt.Errorf("parsing submission_date: %w", err)
	}

	var goodThings, reflections []string
	if err := json.Unmarshal([]byte(doc.GoodThings), &goodThings); err != nil {
		return PreviousReport{}, fmt.Errorf("parsing good_things: %w", err)
	}
	if err := json.Unmarshal([]byte(doc.Reflections), &reflections); err != nil {
		return PreviousReport{}, fmt.Errorf("parsing reflections: %w", err)
	}

	var fb feedback.Feedback
	if err := json.Unmarshal([]byte(doc.FeedbackJSON), &fb); err != nil {
		return PreviousReport{}, fmt.Errorf("parsing feedback: %w", err)
	}

	return PreviousReport{
		Submission: report.Submission{
			SubmitterEmail: doc.SubmitterEmail,
			SubmissionDate: date,
			GoodThings:     goodThings,
			Reflections:    reflections,
			Source:         doc.Source,
			ArrivedAt:      doc.ArrivedAt,
		},
		Feedback: fb,
	}, nil
}
