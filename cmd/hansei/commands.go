package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/hansei/internal/config"
)

// --- submit ---

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a daily report and print the feedback",
	Long: `Submit a daily report and print the feedback.

Examples:
  hansei submit --email dev@example.com --good "shipped the migration" --reflect "reviews started late"
  hansei submit --email dev@example.com --date 2025-06-02 --good "a" --good "b" --reflect "c"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		date, _ := cmd.Flags().GetString("date")
		goodThings, _ := cmd.Flags().GetStringArray("good")
		reflections, _ := cmd.Flags().GetStringArray("reflect")

		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if date == "" {
			date = time.Now().UTC().Format(time.DateOnly)
		}
		if goodThings == nil {
			goodThings = []string{}
		}
		if reflections == nil {
			reflections = []string{}
		}

		req := map[string]any{
			"metadata": map[string]any{
				"submitterEmail": email,
				"source":         "cli",
			},
			"data": map[string]any{
				"submissionDate": date,
				"good_things":    goodThings,
				"reflections":    reflections,
			},
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/daily-report-feedback", req)
		if err != nil {
			return err
		}

		var result struct {
			DocumentID        string `json:"document_id"`
			HasPreviousReport bool   `json:"has_previous_report"`
			Feedback          struct {
				OverallRating    string   `json:"overall_rating"`
				PositivePoints   []string `json:"positive_points"`
				ImprovementAreas []string `json:"improvement_areas"`
				ActionItems      []string `json:"action_items"`
				Encouragement    string   `json:"encouragement"`
			} `json:"feedback"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Feedback for %s (%s)", email, date)
		printStatus("Rating", "%s/5", result.Feedback.OverallRating)
		printList("Went well", result.Feedback.PositivePoints)
		printList("Improve", result.Feedback.ImprovementAreas)
		printList("Next steps", result.Feedback.ActionItems)
		fmt.Printf("\n  %s\n", result.Feedback.Encouragement)
		if result.HasPreviousReport {
			printStep("Compared against your previous report")
		}
		printStatus("Document", "%s", result.DocumentID)
		return nil
	},
}

func init() {
	submitCmd.Flags().String("email", "", "submitter email")
	submitCmd.Flags().String("date", "", "report date, YYYY-MM-DD (default: today)")
	submitCmd.Flags().StringArray("good", nil, "thing that went well (repeatable)")
	submitCmd.Flags().StringArray("reflect", nil, "reflection or thing to improve (repeatable)")
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Browse stored reports and their feedback",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports for a submitter",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		limit, _ := cmd.Flags().GetInt("limit")

		if email == "" {
			return fmt.Errorf("--email is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(fmt.Sprintf("/reports?submitter=%s&limit=%d", email, limit))
		if err != nil {
			return err
		}

		var docs []struct {
			ID             string `json:"id"`
			SubmissionDate string `json:"submission_date"`
			Feedback       struct {
				OverallRating string `json:"overall_rating"`
			} `json:"feedback"`
		}
		if err := decodeJSON(resp, &docs); err != nil {
			return err
		}

		if len(docs) == 0 {
			fmt.Println("No reports found.")
			return nil
		}

		for _, doc := range docs {
			fmt.Printf("%s  %s/5  %s\n",
				colorize(colorCyan, doc.SubmissionDate),
				doc.Feedback.OverallRating,
				doc.ID,
			)
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single report with its feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/reports/" + args[0])
		if err != nil {
			return err
		}

		var doc any
		if err := decodeJSON(resp, &doc); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func init() {
	reportListCmd.Flags().String("email", "", "submitter email")
	reportListCmd.Flags().Int("limit", 10, "maximum number of reports to list")
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
