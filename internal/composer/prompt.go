package composer

import (
	"fmt"
	"strings"

	"github.com/kalambet/hansei/internal/history"
	"github.com/kalambet/hansei/internal/report"
)

// systemPrompt fixes the model's role and the exact JSON output contract.
// The parser depends on this shape; change both together.
const systemPrompt = `You are an experienced engineering mentor reviewing an employee's daily work report.
Write constructive, growth-oriented feedback: acknowledge what went well, identify concrete areas to improve, and suggest specific next actions.
Respond with a single JSON object and nothing else — no markdown fences, no commentary:
{
	"overall_rating": "integer 1-5 as a string, overall assessment of the day",
	"positive_points": ["specific things that went well"],
	"improvement_areas": ["specific areas to work on"],
	"action_items": ["concrete next steps for tomorrow"],
	"encouragement": "a short, genuine encouraging message"
}`

// Prompt is the fully assembled model input.
type Prompt struct {
	System string
	User   string
}

// Builder assembles prompts from a submission and optional prior report.
// It performs no network or store access; identical inputs always produce
// identical output.
type Builder struct{}

// New creates a Builder.
func New() *Builder {
	return &Builder{}
}

// Build produces the prompt for the given submission. When prev is
// non-nil a condensed summary of the prior report and its rating is
// appended so the model can reference the trend between the two days.
func (b *Builder) Build(sub report.Submission, prev *history.PreviousReport) Prompt {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Daily report for %s from %s", sub.DateString(), sub.SubmitterEmail)
	if sub.Source != "" {
		fmt.Fprintf(&sb, " (via %s)", sub.Source)
	}
	sb.WriteString("\n\n")

	writeSection(&sb, "Good things", sub.GoodThings)
	writeSection(&sb, "Reflections", sub.Reflections)

	if prev != nil {
		fmt.Fprintf(&sb, "For context, the previous report (%s) and its feedback are summarized below. Compare the two days and mention progress or recurring themes in your feedback.\n\n", prev.Submission.DateString())
		writeSection(&sb, "Previous good things", prev.Submission.GoodThings)
		writeSection(&sb, "Previous reflections", prev.Submission.Reflections)
		fmt.Fprintf(&sb, "Previous overall rating: %s/5\n", prev.Feedback.OverallRating)
	}

	return Prompt{
		System: systemPrompt,
		User:   strings.TrimRight(sb.String(), "\n"),
	}
}

// writeSection renders a titled bullet list, preserving item order. An
// empty list is stated explicitly so the model does not invent content.
func writeSection(sb *strings.Builder, title string, items []string) {
	fmt.Fprintf(sb, "%s:\n", title)
	if len(items) == 0 {
		sb.WriteString("- (none reported)\n")
	}
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}
