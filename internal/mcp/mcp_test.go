package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pocket/internal/api"
	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
	"github.com/hpungsan/pocket/internal/ops"
)

// staticStore is a token.Store holding a fixed token.
type staticStore string

func (s staticStore) Get() (string, bool) { return string(s), s != "" }

func (s staticStore) Save(string, *string, time.Duration) error { return nil }

// testSetup starts a fake API that routes by path and returns handler deps.
func testSetup(t *testing.T, routes map[string]string) (ops.Deps, *config.Config) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	deps := ops.Deps{
		Client: api.New(srv.URL, 5*time.Second),
		Tokens: staticStore("test-token"),
		Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return deps, config.DefaultConfig()
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

const detailBody = `{
	"recording": {"id": "r1", "title": "Design review", "duration": 600},
	"transcription": {"transcription": {"text": "we agreed"}},
	"summarizations": {"s": {"id": "sum-9", "v2": {"summary": {"markdown": "Agreed."}, "actionItems": {"items": [{"text": "Ship"}]}}}}
}`

const listBody = `{"data": [
	{"id": "r1", "title": "Design review", "recordingAt": "2024-02-28 10:00:00"},
	{"id": "r2", "title": "Lunch", "latitude": 1.0, "longitude": 1.0, "recordingAt": "2024-02-27 10:00:00"}
]}`

func TestHandleList(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{"/recordings": listBody})
	h := NewHandlers(deps)

	result, err := h.HandleList(context.Background(), makeRequest(map[string]any{"days": 30, "limit": 1}))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}

	output := parseOutput(t, result)
	items := output["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	first := items[0].(map[string]any)
	if first["id"] != "r1" {
		t.Errorf("items[0].id = %v, want r1", first["id"])
	}
	if output["start_date"] != "2024-01-31" {
		t.Errorf("start_date = %v, want 2024-01-31", output["start_date"])
	}
}

func TestHandleList_InvalidArgs(t *testing.T) {
	deps, _ := testSetup(t, nil)
	h := NewHandlers(deps)

	result, err := h.HandleList(context.Background(), makeRequest(map[string]any{"days": "thirty"}))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleGetRecording(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{"/recordings/r1": detailBody})
	h := NewHandlers(deps)

	result, err := h.HandleGetRecording(context.Background(), makeRequest(map[string]any{"id": "r1"}))
	if err != nil {
		t.Fatalf("HandleGetRecording error: %v", err)
	}

	output := parseOutput(t, result)
	if output["transcript"] != "we agreed" {
		t.Errorf("transcript = %v, want 'we agreed'", output["transcript"])
	}
	if output["summary"] != "Agreed." {
		t.Errorf("summary = %v, want 'Agreed.'", output["summary"])
	}
	if items := output["action_items"].([]any); len(items) != 1 {
		t.Errorf("len(action_items) = %d, want 1", len(items))
	}
	rec := output["recording"].(map[string]any)
	if rec["title"] != "Design review" {
		t.Errorf("recording.title = %v, want 'Design review'", rec["title"])
	}
}

func TestHandleGetRecording_NotFound(t *testing.T) {
	deps, _ := testSetup(t, nil)
	h := NewHandlers(deps)

	result, err := h.HandleGetRecording(context.Background(), makeRequest(map[string]any{"id": "missing"}))
	if err != nil {
		t.Fatalf("HandleGetRecording error: %v", err)
	}
	assertErrorCode(t, result, string(errors.ErrAPI))
}

func TestHandleGetRecording_MissingID(t *testing.T) {
	deps, _ := testSetup(t, nil)
	h := NewHandlers(deps)

	result, err := h.HandleGetRecording(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleGetRecording error: %v", err)
	}
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
}

func TestHandleGetTranscript(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{
		"/recordings/r1": detailBody,
		"/recordings/r2": `{"recording": {"id": "r2"}}`,
	})
	h := NewHandlers(deps)

	result, err := h.HandleGetTranscript(context.Background(), makeRequest(map[string]any{"id": "r1"}))
	if err != nil {
		t.Fatalf("HandleGetTranscript error: %v", err)
	}
	output := parseOutput(t, result)
	if output["transcript"] != "we agreed" {
		t.Errorf("transcript = %v, want 'we agreed'", output["transcript"])
	}

	result, err = h.HandleGetTranscript(context.Background(), makeRequest(map[string]any{"id": "r2"}))
	if err != nil {
		t.Fatalf("HandleGetTranscript error: %v", err)
	}
	output = parseOutput(t, result)
	if v, ok := output["transcript"]; !ok || v != nil {
		t.Errorf("transcript = %v (present=%v), want explicit null", v, ok)
	}
}

func TestHandleGetSummary(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{
		"/recordings/r1": detailBody,
		"/recordings/r2": `{"recording": {"id": "r2"}, "summarizations": {}}`,
	})
	h := NewHandlers(deps)

	result, err := h.HandleGetSummary(context.Background(), makeRequest(map[string]any{"id": "r1"}))
	if err != nil {
		t.Fatalf("HandleGetSummary error: %v", err)
	}
	output := parseOutput(t, result)
	summary, ok := output["summary"].(map[string]any)
	if !ok {
		t.Fatalf("summary = %v, want object", output["summary"])
	}
	if summary["id"] != "sum-9" {
		t.Errorf("summary.id = %v, want sum-9", summary["id"])
	}
	if summary["recording_id"] != "r1" {
		t.Errorf("summary.recording_id = %v, want r1", summary["recording_id"])
	}
	if summary["summary"] != "Agreed." {
		t.Errorf("summary.summary = %v, want 'Agreed.'", summary["summary"])
	}

	result, err = h.HandleGetSummary(context.Background(), makeRequest(map[string]any{"id": "r2"}))
	if err != nil {
		t.Fatalf("HandleGetSummary error: %v", err)
	}
	output = parseOutput(t, result)
	if output["summary"] != nil {
		t.Errorf("summary = %v, want null", output["summary"])
	}
}

func TestHandleSearch(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{"/recordings": listBody})
	h := NewHandlers(deps)

	result, err := h.HandleSearch(context.Background(), makeRequest(map[string]any{"query": "DESIGN"}))
	if err != nil {
		t.Fatalf("HandleSearch error: %v", err)
	}
	output := parseOutput(t, result)
	items := output["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if output["scanned"] != float64(2) {
		t.Errorf("scanned = %v, want 2", output["scanned"])
	}

	result, err = h.HandleSearch(context.Background(), makeRequest(map[string]any{"lat": 1.0, "lon": 1.0, "radius_km": 0.5}))
	if err != nil {
		t.Fatalf("HandleSearch error: %v", err)
	}
	output = parseOutput(t, result)
	items = output["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != "r2" {
		t.Errorf("items = %v, want only r2", items)
	}
}

func TestHandleSearch_NoCriteria(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{"/recordings": listBody})
	h := NewHandlers(deps)

	result, err := h.HandleSearch(context.Background(), makeRequest(map[string]any{"lat": 1.0}))
	if err != nil {
		t.Fatalf("HandleSearch error: %v", err)
	}
	assertErrorCode(t, result, string(errors.ErrInvalidRequest))
	if msg := extractErrorMessage(result); !strings.Contains(msg, "query and/or lat+lon") {
		t.Errorf("message = %s, want mention of query and/or lat+lon", msg)
	}
}

func TestHandlers_NoToken(t *testing.T) {
	deps, _ := testSetup(t, map[string]string{"/recordings": listBody})
	deps.Tokens = staticStore("")
	h := NewHandlers(deps)

	result, err := h.HandleList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}
	assertErrorCode(t, result, string(errors.ErrNoToken))
}

func TestServerRegistration(t *testing.T) {
	deps, cfg := testSetup(t, nil)

	s := NewServer(deps, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"pocket_list_recordings",
		"pocket_get_recording",
		"pocket_get_transcript",
		"pocket_get_summary",
		"pocket_search",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	deps, cfg := testSetup(t, nil)

	cfg.DisabledTools = []string{"pocket_search", "pocket_get_transcript", "pocket_search"}
	s := NewServer(deps, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 3 {
		t.Errorf("registered tool count = %d, want 3", len(tools))
	}
	for _, name := range []string{"pocket_search", "pocket_get_transcript"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	deps, cfg := testSetup(t, nil)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(deps, cfg, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"pocket_search", "pocket_get_summary"}, wantLen: 0},
		{name: "one unknown", input: []string{"pocket_search", "pocket_delete"}, wantLen: 1},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 5 {
		t.Errorf("AllToolNames() returned %d names, want 5", len(names))
	}
	if names[0] != "pocket_get_recording" {
		t.Errorf("AllToolNames()[0] = %s, want sorted order", names[0])
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	e := errors.NewInternal(fmt.Errorf("write token cache: permission denied"))
	e.Details = map[string]any{"path": "/home/me/.pocket_token.json"}

	errObj := errorObject(t, errorResult(e))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("data[2]: %w", errors.NewInvalidResponse("recording is missing id"))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrInvalidResponse) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInvalidResponse)
	}
	if msg := errObj["message"].(string); msg != "data[2]: recording is missing id" {
		t.Errorf("message = %q, want wrapper context kept", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewLoginTimeout(60)))
	if errObj["code"] != string(errors.ErrLoginTimeout) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrLoginTimeout)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != "INTERNAL" {
		t.Errorf("code=%v, want INTERNAL", errObj["code"])
	}
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message=%v, want generic message", errObj["message"])
	}
}

func TestErrorResult_LogsInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(logger.LevelInfo, &buf)
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, nil) })

	errorResult(fmt.Errorf("boom"))
	errorResult(errors.NewInvalidRequest("recording r9"))

	out := buf.String()
	if !strings.Contains(out, "tool call failed: boom") {
		t.Errorf("log = %q, want internal failure logged", out)
	}
	if strings.Contains(out, "r9") {
		t.Errorf("log = %q, want client errors not logged", out)
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
