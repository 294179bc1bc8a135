package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/logger"
	"github.com/hpungsan/pocket/internal/ops"
	"github.com/hpungsan/pocket/internal/recording"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Request types for each tool

// ListRequest represents the arguments for pocket_list_recordings.
type ListRequest struct {
	Days  *int `json:"days,omitempty"`
	Limit int  `json:"limit,omitempty"`
}

// IDRequest represents the arguments for the single-recording tools.
type IDRequest struct {
	ID string `json:"id"`
}

// SearchRequest represents the arguments for pocket_search.
type SearchRequest struct {
	Query    string   `json:"query,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	RadiusKm *float64 `json:"radius_km,omitempty"`
	Days     *int     `json:"days,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// TranscriptOutput is the result of pocket_get_transcript.
type TranscriptOutput struct {
	ID         string  `json:"id"`
	Transcript *string `json:"transcript"`
}

// SummaryOutput is the result of pocket_get_summary.
type SummaryOutput struct {
	ID      string             `json:"id"`
	Summary *recording.Summary `json:"summary"`
}

// Handler implementations

// HandleList handles the pocket_list_recordings tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.deps, ops.ListInput{
		Days:  input.Days,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGetRecording handles the pocket_get_recording tool call.
func (h *Handlers) HandleGetRecording(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetFull(ctx, h.deps, ops.DetailInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGetTranscript handles the pocket_get_transcript tool call.
func (h *Handlers) HandleGetTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	text, err := ops.GetTranscript(ctx, h.deps, ops.DetailInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(TranscriptOutput{ID: input.ID, Transcript: text})
}

// HandleGetSummary handles the pocket_get_summary tool call.
func (h *Handlers) HandleGetSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	summary, err := ops.GetSummary(ctx, h.deps, ops.DetailInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(SummaryOutput{ID: input.ID, Summary: summary})
}

// HandleSearch handles the pocket_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.deps, ops.SearchInput{
		Query:    input.Query,
		Days:     input.Days,
		Limit:    input.Limit,
		Lat:      input.Lat,
		Lon:      input.Lon,
		RadiusKm: input.RadiusKm,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed to the client, only logged.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	pErr, ok := errors.As(err)
	if !ok || pErr.Code == errors.ErrInternal {
		logger.Errorf("tool call failed: %v", err)
	}

	if ok {
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": errors.Message(err),
			"status":  pErr.Status,
		}
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
