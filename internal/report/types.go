package report

import (
	"encoding/json"
	"time"
)

// Envelope is the inbound daily-report payload as received on the wire.
// List fields are pointers so a missing field can be told apart from an
// empty list during validation.
type Envelope struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
}

// Metadata describes who submitted the report and through which channel.
type Metadata struct {
	SubmitterEmail string `json:"submitterEmail"`
	Timestamp      string `json:"timestamp,omitempty"` // RFC 3339; defaults to server receipt time
	Source         string `json:"source,omitempty"`
}

// Data carries the report content itself.
type Data struct {
	SubmissionDate string    `json:"submissionDate"`
	GoodThings     *[]string `json:"good_things"`
	Reflections    *[]string `json:"reflections"`
}

// Submission is a validated daily report. Immutable once constructed.
type Submission struct {
	SubmitterEmail string
	SubmissionDate time.Time // date only, midnight UTC
	GoodThings     []string
	Reflections    []string
	Source         string
	ArrivedAt      time.Time
}

// DateString returns the submission date in YYYY-MM-DD form, the format
// used for storage and history comparisons.
func (s Submission) DateString() string {
	return s.SubmissionDate.Format(time.DateOnly)
}

// GoodThingsJSON returns the good-things list as a JSON array string for
// text-column storage. Marshalling a plain []string cannot fail.
func (s Submission) GoodThingsJSON() string {
	return marshalList(s.GoodThings)
}

// ReflectionsJSON returns the reflections list as a JSON array string.
func (s Submission) ReflectionsJSON() string {
	return marshalList(s.Reflections)
}

func marshalList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}
