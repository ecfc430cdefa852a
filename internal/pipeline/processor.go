package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kalambet/hansei/internal/composer"
	"github.com/kalambet/hansei/internal/feedback"
	"github.com/kalambet/hansei/internal/history"
	"github.com/kalambet/hansei/internal/proxy"
	"github.com/kalambet/hansei/internal/report"
	"github.com/kalambet/hansei/internal/storage"
)

// HistorySource reads a submitter's prior reports.
type HistorySource interface {
	MostRecent(ctx context.Context, submitterEmail, beforeDate string) ([]history.PreviousReport, error)
}

// Completer generates a completion for a chat request.
type Completer interface {
	Complete(ctx context.Context, req proxy.ChatRequest) (string, error)
}

// DocumentStore persists finished feedback documents.
type DocumentStore interface {
	Save(ctx context.Context, doc storage.FeedbackDocument) error
}

// Options carries the model parameters the processor sends with every
// completion request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Result is the outcome of a successfully processed submission.
type Result struct {
	DocumentID        string
	Feedback          feedback.Feedback
	HasPreviousReport bool
	ProcessedAt       time.Time
}

// Processor runs a submission through the full pipeline: validate, look up
// history, compose the prompt, call the model, parse the response, and
// persist the combined document. Stages run strictly in order; the first
// failure stops the run and is returned as a classified *Error.
type Processor struct {
	history   HistorySource
	composer  *composer.Builder
	completer Completer
	store     DocumentStore
	opts      Options

	now func() time.Time
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(h HistorySource, c Completer, s DocumentStore, opts Options) *Processor {
	return &Processor{
		history:   h,
		composer:  composer.New(),
		completer: c,
		store:     s,
		opts:      opts,
		now:       time.Now,
	}
}

// Process handles one inbound envelope end to end.
func (p *Processor) Process(ctx context.Context, env report.Envelope) (Result, error) {
	receivedAt := p.now().UTC()

	sub, err := report.Validate(env, receivedAt)
	if err != nil {
		return Result{}, stageError(KindValidation, err)
	}

	log := slog.With("submitter", sub.SubmitterEmail, "submission_date", sub.DateString())

	previous, err := p.history.MostRecent(ctx, sub.SubmitterEmail, sub.DateString())
	if err != nil {
		return Result{}, stageError(KindHistory, err)
	}

	var prev *history.PreviousReport
	if len(previous) > 0 {
		prev = &previous[0]
		log.Debug("found previous report", "previous_date", prev.Submission.DateString())
	}

	prompt := p.composer.Build(sub, prev)

	raw, err := p.completer.Complete(ctx, proxy.ChatRequest{
		Model: p.opts.Model,
		Messages: []proxy.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxTokens:   p.opts.MaxTokens,
		Temperature: p.opts.Temperature,
	})
	if err != nil {
		return Result{}, stageError(classifyCompletionError(err), err)
	}

	fb, err := feedback.Parse(raw)
	if err != nil {
		return Result{}, stageError(KindParse, err)
	}

	processedAt := p.now().UTC()
	doc, err := buildDocument(sub, fb, prev != nil, processedAt)
	if err != nil {
		return Result{}, &Error{Kind: KindStorage, Err: err, Feedback: &fb}
	}

	if err := p.store.Save(ctx, doc); err != nil {
		// The feedback exists even though nothing was durably saved;
		// hand it back so the caller can still show it.
		log.Error("persisting feedback document failed", "document_id", doc.ID, "error", err)
		return Result{}, &Error{Kind: KindStorage, Err: err, Feedback: &fb}
	}

	log.Info("processed daily report", "document_id", doc.ID, "has_previous", prev != nil)

	return Result{
		DocumentID:        doc.ID,
		Feedback:          fb,
		HasPreviousReport: prev != nil,
		ProcessedAt:       processedAt,
	}, nil
}

func buildDocument(sub report.Submission, fb feedback.Feedback, hasPrev bool, processedAt time.Time) (storage.FeedbackDocument, error) {
	fbJSON, err := json.Marshal(fb)
	if err != nil {
		return storage.FeedbackDocument{}, err
	}
	return storage.FeedbackDocument{
		ID:                report.DocumentID(sub),
		Type:              storage.DocumentType,
		SubmitterEmail:    sub.SubmitterEmail,
		SubmissionDate:    sub.DateString(),
		GoodThings:        sub.GoodThingsJSON(),
		Reflections:       sub.ReflectionsJSON(),
		Source:            sub.Source,
		ArrivedAt:         sub.ArrivedAt,
		FeedbackJSON:      string(fbJSON),
		HasPreviousReport: hasPrev,
		ProcessedAt:       processedAt,
	}, nil
}

// classifyCompletionError maps the proxy error taxonomy onto pipeline
// kinds. Anything unrecognized is treated as an upstream fault.
func classifyCompletionError(err error) Kind {
	var (
		authErr      *proxy.AuthError
		throttledErr *proxy.ThrottledError
		transientErr *proxy.TransientError
	)
	switch {
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &throttledErr):
		return KindThrottled
	case errors.As(err, &transientErr):
		return KindTransient
	default:
		return KindUpstream
	}
}
