package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/ingest"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/rag"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Deps AppDeps
}

// NewMCPServer creates an MCP server exposing the feedback analysis tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"pulse",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("pulse: customer feedback sentiment analysis and corpus question answering."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_feedback",
			mcp.WithDescription("Ask a question about the ingested customer feedback. Answers are grounded in retrieved feedback excerpts."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("sentiment_report",
			mcp.WithDescription("Return the aggregate sentiment report for the current corpus: distribution, trending topics, market insight, emerging issues."),
		),
		mcpReport(deps),
	)

	s.AddTool(
		mcp.NewTool("ingest_feedback",
			mcp.WithDescription("Ingest feedback rows as a JSON array of objects with a text field (feedback/review/comment/text) and optional timestamp and likes."),
			mcp.WithString("rows", mcp.Description("JSON array of feedback row objects"), mcp.Required()),
			mcp.WithString("source", mcp.Description("Source name for the batch (default \"mcp\")")),
		),
		mcpIngest(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"feedback://report",
			"Sentiment Report",
			mcp.WithResourceDescription("Current aggregate sentiment report as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceReport(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"feedback://recent-questions",
			"Recent Questions",
			mcp.WithResourceDescription("Last 10 answered questions (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		d := deps.Deps
		snap := d.Manager.Current()
		ans, err := d.Query.Ask(ctx, snapIndex(snap), question, nil)
		if ans != nil {
			d.Pipeline.LogInteraction(ans.ID, ans.Question, ans.Text, d.GenModel, string(ans.State), ans.ChunkIDs, ans.CorpusVersion)
		}
		if errors.Is(err, rag.ErrNoCorpusIndexed) {
			return mcpError("no corpus is indexed; ingest feedback first"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("answering failed: %v", err)), nil
		}

		return mcpText(ans.Text), nil
	}
}

func mcpReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := deps.Deps.Manager.Current()
		if snap == nil {
			return mcpError("no feedback has been ingested yet"), nil
		}
		b, err := json.Marshal(snap.Report)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal report: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpIngest(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rowsJSON, err := req.RequireString("rows")
		if err != nil {
			return mcpError("rows is required"), nil
		}
		source := req.GetString("source", "mcp")

		rows, excluded, err := ingest.ParseJSON(strings.NewReader(rowsJSON))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid rows: %v", err)), nil
		}

		snap, err := deps.Deps.Pipeline.Ingest(ctx, source, rows, excluded)
		if err != nil {
			return mcpError(fmt.Sprintf("ingestion failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Ingested corpus version %d: %d records, %d excluded, index %s",
			snap.Corpus.Version, snap.Corpus.Len(), snap.Report.Excluded, indexState(snap))), nil
	}
}

func mcpResourceReport(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap := deps.Deps.Manager.Current()
		if snap == nil {
			return nil, fmt.Errorf("no feedback has been ingested yet")
		}
		b, err := json.Marshal(snap.Report)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Deps.Store.ListInteractions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to list interactions: %w", err)
		}

		type interactionSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Question  string `json:"question"`
			Status    string `json:"status"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			question := ix.Question
			if utf8.RuneCountInString(question) > 200 {
				runes := []rune(question)
				question = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Question:  question,
				Status:    ix.Status,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
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
