package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
)

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_IngestFeedback(t *testing.T) {
	_, deps := newTestHandler(t, &fakeEngine{})
	handler := mcpIngest(MCPDeps{Deps: deps})

	result, err := handler(context.Background(), makeCallToolRequest("ingest_feedback", map[string]interface{}{
		"rows":   `[{"feedback": "I love this"}, {"feedback": "hate the battery"}]`,
		"source": "test-batch",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	if !strings.Contains(text, "corpus version 1") {
		t.Errorf("result = %q, want corpus version 1", text)
	}
	if !strings.Contains(text, "2 records") {
		t.Errorf("result = %q, want 2 records", text)
	}

	if snap := deps.Manager.Current(); snap == nil || snap.Corpus.Len() != 2 {
		t.Error("snapshot not published after ingest")
	}
}

func TestMCPTool_IngestFeedback_InvalidRows(t *testing.T) {
	_, deps := newTestHandler(t, &fakeEngine{})
	handler := mcpIngest(MCPDeps{Deps: deps})

	result, err := handler(context.Background(), makeCallToolRequest("ingest_feedback", map[string]interface{}{
		"rows": `{"not": "an array"}`,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for non-array rows")
	}
}

func TestMCPTool_AskFeedback(t *testing.T) {
	eng := &fakeEngine{response: "Customers love it."}
	h, deps := newTestHandler(t, eng)
	ingestRows(t, h, `[{"feedback": "I love this product"}]`)

	handler := mcpAsk(MCPDeps{Deps: deps})
	result, err := handler(context.Background(), makeCallToolRequest("ask_feedback", map[string]interface{}{
		"question": "what do customers think?",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != eng.response {
		t.Errorf("answer = %q", got)
	}

	interactions, err := deps.Store.ListInteractions(5)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(interactions) != 1 {
		t.Fatalf("got %d logged interactions, want 1", len(interactions))
	}
	if interactions[0].Question != "what do customers think?" {
		t.Errorf("logged question = %q", interactions[0].Question)
	}
}

func TestMCPTool_AskFeedback_NoCorpus(t *testing.T) {
	_, deps := newTestHandler(t, &fakeEngine{})
	handler := mcpAsk(MCPDeps{Deps: deps})

	result, err := handler(context.Background(), makeCallToolRequest("ask_feedback", map[string]interface{}{
		"question": "anything?",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error without a corpus")
	}
	if got := toolText(t, result); !strings.Contains(got, "no corpus") {
		t.Errorf("error text = %q", got)
	}
}

func TestMCPTool_AskFeedback_MissingQuestion(t *testing.T) {
	_, deps := newTestHandler(t, &fakeEngine{})
	handler := mcpAsk(MCPDeps{Deps: deps})

	result, err := handler(context.Background(), makeCallToolRequest("ask_feedback", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing question")
	}
}

func TestMCPTool_SentimentReport(t *testing.T) {
	h, deps := newTestHandler(t, &fakeEngine{})
	handler := mcpReport(MCPDeps{Deps: deps})

	result, err := handler(context.Background(), makeCallToolRequest("sentiment_report", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error before any ingest")
	}

	ingestRows(t, h, `[{"feedback": "I love this"}, {"feedback": "awful quality"}]`)

	result, err = handler(context.Background(), makeCallToolRequest("sentiment_report", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var report aggregate.Report
	if err := json.Unmarshal([]byte(toolText(t, result)), &report); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if report.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", report.TotalRecords)
	}
}

func TestMCPResource_RecentQuestions(t *testing.T) {
	eng := &fakeEngine{response: "An answer."}
	h, deps := newTestHandler(t, eng)
	ingestRows(t, h, `[{"feedback": "solid product"}]`)

	ask := mcpAsk(MCPDeps{Deps: deps})
	if _, err := ask(context.Background(), makeCallToolRequest("ask_feedback", map[string]interface{}{
		"question": "is it good?",
	})); err != nil {
		t.Fatalf("ask: %v", err)
	}

	handler := mcpResourceRecent(MCPDeps{Deps: deps})
	contents, err := handler(context.Background(), makeReadResourceRequest("feedback://recent-questions"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents", len(contents))
	}

	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, "is it good?") {
		t.Errorf("resource missing question: %s", text)
	}
}
