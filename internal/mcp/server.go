package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/settings"
	"github.com/fivol/ai-threads/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"thread_create": {
		def:     threadCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadCreate },
	},
	"thread_list": {
		def:     threadListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadList },
	},
	"thread_delete": {
		def:     threadDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadDelete },
	},
	"thread_pin": {
		def:     threadPinToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadPin },
	},
	"thread_set_prompt": {
		def:     threadSetPromptToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadSetPrompt },
	},
	"thread_set_generation_count": {
		def:     threadSetGenerationCountToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThreadSetGenerationCount },
	},
	"thought_list": {
		def:     thoughtListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtList },
	},
	"thought_add": {
		def:     thoughtAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtAdd },
	},
	"thought_select": {
		def:     thoughtSelectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtSelect },
	},
	"thought_star": {
		def:     thoughtStarToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtStar },
	},
	"thought_edit": {
		def:     thoughtEditToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtEdit },
	},
	"thought_delete": {
		def:     thoughtDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtDelete },
	},
	"thought_prune": {
		def:     thoughtPruneToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleThoughtPrune },
	},
	"generate": {
		def:     generateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerate },
	},
	"generate_title": {
		def:     generateTitleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerateTitle },
	},
	"starred_list": {
		def:     starredListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStarredList },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_update": {
		def:     settingsUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsUpdate },
	},
	"export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
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

// NewServer creates a new MCP server with the thread tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(st *store.Store, se *settings.Store, cfg *config.Config, exportsDir, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ai-threads",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, se, cfg, exportsDir)

	disabled := make(map[string]bool)
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
func Run(st *store.Store, se *settings.Store, cfg *config.Config, exportsDir, version string) error {
	s := NewServer(st, se, cfg, exportsDir, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
