package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalambet/hansei/internal/feedback"
	"github.com/kalambet/hansei/internal/pipeline"
	"github.com/kalambet/hansei/internal/report"
	"github.com/kalambet/hansei/internal/storage"
)

type fakeProcessor struct {
	result  pipeline.Result
	err     error
	lastEnv report.Envelope
}

func (f *fakeProcessor) Process(_ context.Context, env report.Envelope) (pipeline.Result, error) {
	f.lastEnv = env
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return f.result, nil
}

type fakeReader struct {
	doc       storage.FeedbackDocument
	docErr    error
	docs      []storage.FeedbackDocument
	listErr   error
	lastEmail string
	lastLimit int
}

func (f *fakeReader) GetFeedbackDocument(_ context.Context, _ string) (storage.FeedbackDocument, error) {
	return f.doc, f.docErr
}

func (f *fakeReader) ListRecentDocuments(_ context.Context, email string, limit int) ([]storage.FeedbackDocument, error) {
	f.lastEmail = email
	f.lastLimit = limit
	return f.docs, f.listErr
}

func testFeedback() feedback.Feedback {
	return feedback.Feedback{
		OverallRating:    "4",
		PositivePoints:   []string{"shipped the migration"},
		ImprovementAreas: []string{"start reviews earlier"},
		ActionItems:      []string{"block review time"},
		Encouragement:    "Well done.",
	}
}

func testDocument() storage.FeedbackDocument {
	return storage.FeedbackDocument{
		ID:             "report_dev@example.com_20250602_083045",
		Type:           storage.DocumentType,
		SubmitterEmail: "dev@example.com",
		SubmissionDate: "2025-06-02",
		GoodThings:     `["shipped the migration"]`,
		Reflections:    `["reviews started late"]`,
		Source:         "slack",
		ArrivedAt:      time.Date(2025, 6, 2, 8, 30, 45, 0, time.UTC),
		FeedbackJSON:   `{"overall_rating":"4","positive_points":[],"improvement_areas":[],"action_items":[],"encouragement":"ok"}`,
		ProcessedAt:    time.Date(2025, 6, 2, 8, 30, 47, 0, time.UTC),
	}
}

const submitBody = `{
	"metadata": {"submitterEmail": "dev@example.com", "source": "slack"},
	"data": {"submissionDate": "2025-06-02", "good_things": ["a"], "reflections": ["b"]}
}`

func TestHandleHealth(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestHandleSubmit_Success(t *testing.T) {
	p := &fakeProcessor{result: pipeline.Result{
		DocumentID:        "report_dev@example.com_20250602_083045",
		Feedback:          testFeedback(),
		HasPreviousReport: true,
		ProcessedAt:       time.Date(2025, 6, 2, 8, 30, 47, 0, time.UTC),
	}}
	h := NewAppHandler(AppDeps{Processor: p, Reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report-feedback", strings.NewReader(submitBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success           bool              `json:"success"`
		DocumentID        string            `json:"document_id"`
		Feedback          feedback.Feedback `json:"feedback"`
		HasPreviousReport bool              `json:"has_previous_report"`
		ProcessedAt       string            `json:"processed_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.DocumentID != "report_dev@example.com_20250602_083045" {
		t.Errorf("document_id = %q", resp.DocumentID)
	}
	if !resp.HasPreviousReport {
		t.Error("has_previous_report = false")
	}
	if resp.Feedback.OverallRating != "4" {
		t.Errorf("rating = %q", resp.Feedback.OverallRating)
	}
	if resp.ProcessedAt != "2025-06-02T08:30:47Z" {
		t.Errorf("processed_at = %q", resp.ProcessedAt)
	}

	if p.lastEnv.Metadata.SubmitterEmail != "dev@example.com" {
		t.Errorf("envelope not passed through: %+v", p.lastEnv)
	}
}

func TestHandleSubmit_InvalidJSON(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report-feedback", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	assertErrorKind(t, rec, "validation_error")
}

func TestHandleSubmit_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind   pipeline.Kind
		status int
	}{
		{pipeline.KindValidation, http.StatusBadRequest},
		{pipeline.KindHistory, http.StatusInternalServerError},
		{pipeline.KindAuth, http.StatusBadGateway},
		{pipeline.KindThrottled, http.StatusTooManyRequests},
		{pipeline.KindTransient, http.StatusServiceUnavailable},
		{pipeline.KindUpstream, http.StatusBadGateway},
		{pipeline.KindParse, http.StatusBadGateway},
		{pipeline.KindStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := &fakeProcessor{err: &pipeline.Error{Kind: tt.kind, Err: errors.New("boom")}}
			h := NewAppHandler(AppDeps{Processor: p, Reader: &fakeReader{}})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report-feedback", strings.NewReader(submitBody)))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			assertErrorKind(t, rec, string(tt.kind))
		})
	}
}

func TestHandleSubmit_StorageFailureCarriesFeedback(t *testing.T) {
	fb := testFeedback()
	p := &fakeProcessor{err: &pipeline.Error{
		Kind:     pipeline.KindStorage,
		Err:      errors.New("database is locked"),
		Feedback: &fb,
	}}
	h := NewAppHandler(AppDeps{Processor: p, Reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/daily-report-feedback", strings.NewReader(submitBody)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success  bool               `json:"success"`
		Feedback *feedback.Feedback `json:"feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Success {
		t.Error("success = true on failure")
	}
	if resp.Feedback == nil {
		t.Fatal("feedback missing from storage-failure response")
	}
	if resp.Feedback.OverallRating != "4" {
		t.Errorf("carried rating = %q", resp.Feedback.OverallRating)
	}
}

func TestHandleGetReport(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{doc: testDocument()}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/report_dev@example.com_20250602_083045", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var view struct {
		ID         string   `json:"id"`
		GoodThings []string `json:"good_things"`
		Feedback   struct {
			OverallRating string `json:"overall_rating"`
		} `json:"feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if view.ID != "report_dev@example.com_20250602_083045" {
		t.Errorf("id = %q", view.ID)
	}
	if len(view.GoodThings) != 1 || view.GoodThings[0] != "shipped the migration" {
		t.Errorf("good_things = %v, stored JSON should round-trip as a list", view.GoodThings)
	}
	if view.Feedback.OverallRating != "4" {
		t.Errorf("feedback rating = %q", view.Feedback.OverallRating)
	}
}

func TestHandleGetReport_NotFound(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{docErr: storage.ErrNotFound}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleListReports(t *testing.T) {
	reader := &fakeReader{docs: []storage.FeedbackDocument{testDocument()}}
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: reader})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?submitter=dev@example.com&limit=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if reader.lastEmail != "dev@example.com" || reader.lastLimit != 3 {
		t.Errorf("query passed as %q/%d", reader.lastEmail, reader.lastLimit)
	}

	var views []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(views) != 1 {
		t.Errorf("got %d documents", len(views))
	}
}

func TestHandleListReports_RequiresSubmitter(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	assertErrorKind(t, rec, "validation_error")
}

func TestRequestID_EchoesProvidedID(t *testing.T) {
	h := NewAppHandler(AppDeps{Processor: &fakeProcessor{}, Reader: &fakeReader{}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func assertErrorKind(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Success {
		t.Error("success = true on error response")
	}
	if resp.Error.Kind != want {
		t.Errorf("error kind = %q, want %q", resp.Error.Kind, want)
	}
	if resp.Error.Message == "" {
		t.Error("error message is empty")
	}
}
