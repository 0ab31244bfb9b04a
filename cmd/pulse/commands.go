package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/config"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/rag"
)

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Upload a feedback file (CSV, JSON, or PDF) for analysis",
	Long: `Upload a feedback file for analysis. The format is detected from
the file extension.

Examples:
  pulse ingest reviews.csv
  pulse ingest tweets.json
  pulse ingest survey.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return fmt.Errorf("building upload: %w", err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("building upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return fmt.Errorf("building upload: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postMultipart(cmd.Context(), "/ingest", mw.FormDataContentType(), &buf)
		if err != nil {
			return err
		}

		var result struct {
			CorpusVersion uint64 `json:"corpus_version"`
			Ingested      int    `json:"ingested"`
			Excluded      int    `json:"excluded"`
			IndexState    string `json:"index_state"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Ingested %d records (%d excluded), corpus version %d",
			result.Ingested, result.Excluded, result.CorpusVersion)
		if result.IndexState != "ready" {
			printWarning("index is %s; questions will fail until embedding works", result.IndexState)
		}
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the ingested feedback",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON(cmd.Context(), "/ask", map[string]any{"question": question})
		if err != nil {
			return err
		}

		var ans rag.Answer
		if err := decodeJSON(resp, &ans); err != nil {
			return err
		}

		fmt.Println(ans.Text)
		fmt.Fprintf(os.Stderr, "\n%s confidence %.2f, %d chunks, corpus v%d\n",
			colorize(colorCyan, "·"), ans.Confidence, len(ans.ChunkIDs), ans.CorpusVersion)
		return nil
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the sentiment report for the current corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/report")
		if err != nil {
			return err
		}

		var report aggregate.Report
		if err := decodeJSON(resp, &report); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printReport(report)
		return nil
	},
}

func printReport(r aggregate.Report) {
	fmt.Printf("%s corpus v%d, %d records (%d excluded)\n\n",
		colorize(colorBold, "Sentiment Report"), r.CorpusVersion, r.TotalRecords, r.Excluded)

	for _, label := range []corpus.Label{corpus.LabelPositive, corpus.LabelNegative, corpus.LabelNeutral} {
		fmt.Printf("  %-9s %3d%%  (%d)\n", label, r.Distribution.Percent[label], r.Distribution.Counts[label])
	}

	fmt.Printf("\n%s %s (score %.3f, confidence %.0f%%)\n",
		colorize(colorBold, "Mood:"), r.Insight.OverallMood, r.Insight.MoodScore, r.Insight.Confidence)
	if r.Insight.EngagementTrend != "" {
		fmt.Printf("%s %s\n", colorize(colorBold, "Engagement:"), r.Insight.EngagementTrend)
	}
	if r.EngagementCorrelation != nil {
		fmt.Printf("%s %.3f\n", colorize(colorBold, "Sentiment/engagement correlation:"), *r.EngagementCorrelation)
	}

	if len(r.Topics) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Trending topics"))
		for _, t := range r.Topics {
			fmt.Printf("  %-20s %4d mentions, mostly %s\n", t.Term, t.Frequency, t.Dominant)
		}
	}

	if len(r.Issues) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Emerging issues"))
		for _, i := range r.Issues {
			fmt.Printf("  %-20s %4d mentions, %s severity\n", i.Name, i.Mentions, strings.ToLower(i.Severity))
		}
	}

	if len(r.Insight.Recommendations) > 0 {
		fmt.Printf("\n%s\n", colorize(colorBold, "Recommendations"))
		for _, rec := range r.Insight.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

func init() {
	reportCmd.Flags().Bool("json", false, "print the raw report as JSON")
}

// --- insights ---

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate an AI summary of the current sentiment report",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON(cmd.Context(), "/insights", nil)
		if err != nil {
			return err
		}

		var result struct {
			CorpusVersion uint64 `json:"corpus_version"`
			Insights      string `json:"insights"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Insights)
		return nil
	},
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Browse the question and answer log",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interactions?limit=%d", limit))
		if err != nil {
			return err
		}

		var interactions []struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Question  string `json:"question"`
			Status    string `json:"status"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			question := ix.Question
			if len(question) > 80 {
				question = question[:80] + "..."
			}
			id := ix.ID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Printf("%s  %s  %-9s %s\n",
				colorize(colorCyan, id), ix.CreatedAt, ix.Status, question)
		}
		return nil
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}

		var interaction any
		if err := decodeJSON(resp, &interaction); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(interaction)
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
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

		for _, k := range config.ShowAll(cfg) {
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
