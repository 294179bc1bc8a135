package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var listToolDef = mcp.NewTool("pocket_list_recordings",
	mcp.WithDescription("List recent Pocket recordings, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("days", mcp.Description("Look-back window in days (default 30)")),
	mcp.WithNumber("limit", mcp.Description("Maximum recordings to return (default 50)")),
)

var getRecordingToolDef = mcp.NewTool("pocket_get_recording",
	mcp.WithDescription("Get one recording with its transcript, summary, action items and speakers."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
)

var getTranscriptToolDef = mcp.NewTool("pocket_get_transcript",
	mcp.WithDescription("Get the transcript text of a recording. transcript is null when none exists."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
)

var getSummaryToolDef = mcp.NewTool("pocket_get_summary",
	mcp.WithDescription("Get the AI summary and action items of a recording. summary is null when none exists."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
)

var searchToolDef = mcp.NewTool("pocket_search",
	mcp.WithDescription("Search recent recordings by text (title, description, tags) and/or location. "+
		"Requires query, or lat and lon together."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description("Case-insensitive substring")),
	mcp.WithNumber("lat", mcp.Description("Latitude of the search center")),
	mcp.WithNumber("lon", mcp.Description("Longitude of the search center")),
	mcp.WithNumber("radius_km", mcp.Description("Search radius in km (default 1)")),
	mcp.WithNumber("days", mcp.Description("Look-back window in days (default 90)")),
	mcp.WithNumber("limit", mcp.Description("Maximum matches to return (default 20)")),
)
