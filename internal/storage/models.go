package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// DocumentType is the type discriminator (and partition key) for every
// persisted daily-report-with-feedback document.
const DocumentType = "daily_report_with_feedback"

// FeedbackDocument is the persisted unit: one submission combined with its
// generated feedback. List fields and the feedback itself are JSON stored
// as text, matching the wire shapes exactly.
type FeedbackDocument struct {
	ID                string
	Type              string
	SubmitterEmail    string
	SubmissionDate    string // YYYY-MM-DD
	GoodThings        string // JSON array stored as text
	Reflections       string // JSON array stored as text
	Source            string
	ArrivedAt         time.Time
	FeedbackJSON      string
	HasPreviousReport bool
	ProcessedAt       time.Time
}
