package report

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validEnvelope() Envelope {
	good := []string{"Shipped API"}
	refl := []string{"Tests ran long"}
	return Envelope{
		Metadata: Metadata{
			SubmitterEmail: "dev@example.com",
			Timestamp:      "2025-06-02T08:30:45Z",
			Source:         "forms",
		},
		Data: Data{
			SubmissionDate: "2025-06-01",
			GoodThings:     &good,
			Reflections:    &refl,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	sub, err := Validate(validEnvelope(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.SubmitterEmail != "dev@example.com" {
		t.Errorf("email = %q", sub.SubmitterEmail)
	}
	if sub.DateString() != "2025-06-01" {
		t.Errorf("date = %q", sub.DateString())
	}
	if !sub.ArrivedAt.Equal(time.Date(2025, 6, 2, 8, 30, 45, 0, time.UTC)) {
		t.Errorf("arrivedAt = %v", sub.ArrivedAt)
	}
	if len(sub.GoodThings) != 1 || sub.GoodThings[0] != "Shipped API" {
		t.Errorf("good things = %v", sub.GoodThings)
	}
}

func TestValidate_ArrivalDefaultsToReceiptTime(t *testing.T) {
	env := validEnvelope()
	env.Metadata.Timestamp = ""
	received := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	sub, err := Validate(env, received)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.ArrivedAt.Equal(received) {
		t.Errorf("arrivedAt = %v, want %v", sub.ArrivedAt, received)
	}
}

func TestValidate_EmptyListsAllowed(t *testing.T) {
	env := validEnvelope()
	empty := []string{}
	env.Data.GoodThings = &empty
	env.Data.Reflections = &empty

	if _, err := Validate(env, time.Now()); err != nil {
		t.Fatalf("empty lists should be valid, got %v", err)
	}
}

func TestValidate_AggregatesAllViolations(t *testing.T) {
	env := Envelope{} // everything missing

	_, err := Validate(env, time.Now())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Violations) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(ve.Violations), ve.Violations)
	}
	msg := ve.Error()
	for _, want := range []string{"submitterEmail", "submissionDate", "good_things", "reflections"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidate_BadDateAndTimestamp(t *testing.T) {
	env := validEnvelope()
	env.Data.SubmissionDate = "June 1st"
	env.Metadata.Timestamp = "yesterday"

	_, err := Validate(env, time.Now())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Violations) != 2 {
		t.Errorf("expected 2 violations, got %v", ve.Violations)
	}
}

func TestDocumentID(t *testing.T) {
	sub := Submission{
		SubmitterEmail: "dev@example.com",
		SubmissionDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ArrivedAt:      time.Date(2025, 6, 2, 8, 30, 45, 0, time.UTC),
	}
	got := DocumentID(sub)
	want := "report_dev@example.com_20250601_083045"
	if got != want {
		t.Errorf("DocumentID = %q, want %q", got, want)
	}
}

func TestDocumentID_SameSecondCollides(t *testing.T) {
	a := Submission{
		SubmitterEmail: "dev@example.com",
		SubmissionDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ArrivedAt:      time.Date(2025, 6, 2, 8, 30, 45, 100, time.UTC),
	}
	b := a
	b.ArrivedAt = a.ArrivedAt.Add(500 * time.Millisecond)

	// Sub-second differences collapse to the same id on purpose.
	if DocumentID(a) != DocumentID(b) {
		t.Errorf("ids differ within the same second: %q vs %q", DocumentID(a), DocumentID(b))
	}
}
