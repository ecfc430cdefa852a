package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/hansei/internal/feedback"
	"github.com/kalambet/hansei/internal/pipeline"
	"github.com/kalambet/hansei/internal/report"
	"github.com/kalambet/hansei/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ReportProcessor runs one submission through the feedback pipeline.
type ReportProcessor interface {
	Process(ctx context.Context, env report.Envelope) (pipeline.Result, error)
}

// DocumentReader is the read slice of the store the API exposes.
type DocumentReader interface {
	GetFeedbackDocument(ctx context.Context, id string) (storage.FeedbackDocument, error)
	ListRecentDocuments(ctx context.Context, submitterEmail string, limit int) ([]storage.FeedbackDocument, error)
}

// AppDeps holds the API layer's dependencies.
type AppDeps struct {
	Processor ReportProcessor
	Reader    DocumentReader
}

// NewAppHandler returns the HTTP surface: submission endpoint, health
// check, and read endpoints over stored feedback documents.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)

	r.Get("/health", handleHealth)
	r.Post("/daily-report-feedback", handleSubmit(deps))
	r.Get("/reports", handleListReports(deps))
	r.Get("/reports/{id}", handleGetReport(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type successResponse struct {
	Success           bool              `json:"success"`
	DocumentID        string            `json:"document_id"`
	Feedback          feedback.Feedback `json:"feedback"`
	HasPreviousReport bool              `json:"has_previous_report"`
	ProcessedAt       string            `json:"processed_at"`
}

type errorResponse struct {
	Success  bool               `json:"success"`
	Error    errorBody          `json:"error"`
	Feedback *feedback.Feedback `json:"feedback,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func handleSubmit(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var env report.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			writeError(w, http.StatusBadRequest, &pipeline.Error{
				Kind: pipeline.KindValidation,
				Err:  errors.New("request body is not valid JSON: " + err.Error()),
			})
			return
		}

		result, err := deps.Processor.Process(r.Context(), env)
		if err != nil {
			var pErr *pipeline.Error
			if !errors.As(err, &pErr) {
				pErr = &pipeline.Error{Kind: pipeline.KindUpstream, Err: err}
			}
			writeError(w, statusForKind(pErr.Kind), pErr)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(successResponse{
			Success:           true,
			DocumentID:        result.DocumentID,
			Feedback:          result.Feedback,
			HasPreviousReport: result.HasPreviousReport,
			ProcessedAt:       result.ProcessedAt.Format(time.RFC3339),
		})
	}
}

// documentView is the read-API projection of a stored document. The list
// and feedback columns are stored as JSON text, so they re-enter the
// response as raw JSON rather than being re-encoded strings.
type documentView struct {
	ID                string          `json:"id"`
	SubmitterEmail    string          `json:"submitter_email"`
	SubmissionDate    string          `json:"submission_date"`
	GoodThings        json.RawMessage `json:"good_things"`
	Reflections       json.RawMessage `json:"reflections"`
	Source            string          `json:"source,omitempty"`
	ArrivedAt         string          `json:"arrived_at"`
	Feedback          json.RawMessage `json:"feedback"`
	HasPreviousReport bool            `json:"has_previous_report"`
	ProcessedAt       string          `json:"processed_at"`
}

func viewOf(doc storage.FeedbackDocument) documentView {
	return documentView{
		ID:                doc.ID,
		SubmitterEmail:    doc.SubmitterEmail,
		SubmissionDate:    doc.SubmissionDate,
		GoodThings:        json.RawMessage(doc.GoodThings),
		Reflections:       json.RawMessage(doc.Reflections),
		Source:            doc.Source,
		ArrivedAt:         doc.ArrivedAt.Format(time.RFC3339),
		Feedback:          json.RawMessage(doc.FeedbackJSON),
		HasPreviousReport: doc.HasPreviousReport,
		ProcessedAt:       doc.ProcessedAt.Format(time.RFC3339),
	}
}

func handleGetReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := deps.Reader.GetFeedbackDocument(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, string(pipeline.KindStorage), "reading report: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(viewOf(doc))
	}
}

func handleListReports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submitter := r.URL.Query().Get("submitter")
		if submitter == "" {
			httpError(w, http.StatusBadRequest, string(pipeline.KindValidation), "submitter query parameter is required")
			return
		}
		limit := parseIntParam(r, "limit", 10, 100)

		docs, err := deps.Reader.ListRecentDocuments(r.Context(), submitter, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, string(pipeline.KindStorage), "listing reports: %v", err)
			return
		}

		views := make([]documentView, len(docs))
		for i, doc := range docs {
			views[i] = viewOf(doc)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

// statusForKind maps pipeline error kinds to HTTP status codes. Caller
// faults are 4xx, store faults 5xx on our side, model-service faults
// gateway-style 5xx.
func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindValidation:
		return http.StatusBadRequest
	case pipeline.KindThrottled:
		return http.StatusTooManyRequests
	case pipeline.KindTransient:
		return http.StatusServiceUnavailable
	case pipeline.KindHistory, pipeline.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, status int, pErr *pipeline.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Success:  false,
		Error:    errorBody{Kind: string(pErr.Kind), Message: pErr.Err.Error()},
		Feedback: pErr.Feedback,
	})
}

func httpError(w http.ResponseWriter, status int, kind string, format string, args ...any) {
	writeError(w, status, &pipeline.Error{
		Kind: pipeline.Kind(kind),
		Err:  fmt.Errorf(format, args...),
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
