package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/hansei/internal/pipeline"
	"github.com/kalambet/hansei/internal/report"
)

// MCPDeps holds dependencies for the MCP tool surface.
type MCPDeps struct {
	Processor ReportProcessor
	Reader    DocumentReader
}

// NewMCPServer creates an MCP server exposing the feedback pipeline to
// agent clients over stdio: submit a daily report, or list a submitter's
// recent feedback.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"hansei",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("hansei — AI feedback on daily work reports. Submit a report to get structured feedback; past feedback is stored per submitter."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("submit_daily_report",
			mcp.WithDescription("Submit a daily work report and receive structured AI feedback (rating, positives, improvement areas, action items)."),
			mcp.WithString("submitter_email", mcp.Description("Email of the person submitting the report"), mcp.Required()),
			mcp.WithString("submission_date", mcp.Description("Report date, YYYY-MM-DD"), mcp.Required()),
			mcp.WithArray("good_things", mcp.Description("Things that went well today"), mcp.Required()),
			mcp.WithArray("reflections", mcp.Description("Reflections and things to improve"), mcp.Required()),
		),
		mcpSubmitDailyReport(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_feedback",
			mcp.WithDescription("List a submitter's most recent reports and the feedback they received."),
			mcp.WithString("submitter_email", mcp.Description("Email of the submitter"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of reports (default 5)")),
		),
		mcpRecentFeedback(deps),
	)

	return s
}

func mcpSubmitDailyReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		email, err := req.RequireString("submitter_email")
		if err != nil {
			return mcpError("submitter_email is required"), nil
		}
		date, err := req.RequireString("submission_date")
		if err != nil {
			return mcpError("submission_date is required"), nil
		}

		goodThings := req.GetStringSlice("good_things", []string{})
		reflections := req.GetStringSlice("reflections", []string{})

		env := report.Envelope{
			Metadata: report.Metadata{
				SubmitterEmail: email,
				Source:         "mcp",
			},
			Data: report.Data{
				SubmissionDate: date,
				GoodThings:     &goodThings,
				Reflections:    &reflections,
			},
		}

		result, err := deps.Processor.Process(ctx, env)
		if err != nil {
			var pErr *pipeline.Error
			if errors.As(err, &pErr) && pErr.Feedback != nil {
				// Persistence failed after feedback was generated; the
				// feedback is still worth returning.
				b, mErr := json.Marshal(pErr.Feedback)
				if mErr == nil {
					return mcpError(fmt.Sprintf("feedback generated but not saved (%v): %s", pErr.Err, b)), nil
				}
			}
			return mcpError(fmt.Sprintf("processing report failed: %v", err)), nil
		}

		b, err := json.Marshal(successResponse{
			Success:           true,
			DocumentID:        result.DocumentID,
			Feedback:          result.Feedback,
			HasPreviousReport: result.HasPreviousReport,
			ProcessedAt:       result.ProcessedAt.Format(time.RFC3339),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecentFeedback(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		email, err := req.RequireString("submitter_email")
		if err != nil {
			return mcpError("submitter_email is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		docs, err := deps.Reader.ListRecentDocuments(ctx, email, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("listing feedback failed: %v", err)), nil
		}

		if len(docs) == 0 {
			return mcpText("[]"), nil
		}

		views := make([]documentView, len(docs))
		for i, doc := range docs {
			views[i] = viewOf(doc)
		}

		b, err := json.Marshal(views)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
