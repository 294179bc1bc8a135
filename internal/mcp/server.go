package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"pocket_list_recordings": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"pocket_get_recording": {
		def:     getRecordingToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetRecording },
	},
	"pocket_get_transcript": {
		def:     getTranscriptToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetTranscript },
	},
	"pocket_get_summary": {
		def:     getSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetSummary },
	},
	"pocket_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Pocket tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(deps ops.Deps, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pocket",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps ops.Deps, cfg *config.Config, version string) error {
	s := NewServer(deps, cfg, version)
	return server.ServeStdio(s)
}
