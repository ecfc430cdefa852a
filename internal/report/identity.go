package report

import "fmt"

// DocumentID derives the stable document identifier for a submission:
// report_<submitterEmail>_<submissionDate:YYYYMMDD>_<arrivalTime:HHMMSS>.
//
// The id doubles as the upsert key: a resubmission from the same submitter
// with the same second-granularity arrival time overwrites the earlier
// document instead of duplicating it. Two distinct submissions landing in
// the same second collapse to one document; that trade-off is accepted so
// client retries stay idempotent.
func DocumentID(s Submission) string {
	return fmt.Sprintf("report_%s_%s_%s",
		s.SubmitterEmail,
		s.SubmissionDate.Format("20060102"),
		s.ArrivedAt.UTC().Format("150405"),
	)
}
