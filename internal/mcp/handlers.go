package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/settings"
	"github.com/fivol/ai-threads/internal/store"
	"github.com/fivol/ai-threads/internal/thought"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store      *store.Store
	settings   *settings.Store
	cfg        *config.Config
	exportsDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, se *settings.Store, cfg *config.Config, exportsDir string) *Handlers {
	return &Handlers{store: st, settings: se, cfg: cfg, exportsDir: exportsDir}
}

// Request types for each tool

// ThreadRef addresses a thread.
type ThreadRef struct {
	ThreadID string `json:"thread_id"`
}

// ThoughtRef addresses a thought within a thread.
type ThoughtRef struct {
	ThreadID  string `json:"thread_id"`
	ThoughtID string `json:"thought_id"`
}

// SetPromptRequest represents the arguments for thread_set_prompt.
type SetPromptRequest struct {
	ThreadID string `json:"thread_id"`
	Prompt   string `json:"prompt,omitempty"`
}

// SetGenerationCountRequest represents the arguments for thread_set_generation_count.
type SetGenerationCountRequest struct {
	ThreadID string `json:"thread_id"`
	Count    int    `json:"count"`
}

// ThoughtListRequest represents the arguments for thought_list.
type ThoughtListRequest struct {
	ThreadID     string `json:"thread_id"`
	SelectedOnly bool   `json:"selected_only,omitempty"`
}

// ThoughtAddRequest represents the arguments for thought_add.
type ThoughtAddRequest struct {
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
}

// ThoughtEditRequest represents the arguments for thought_edit.
type ThoughtEditRequest struct {
	ThreadID  string `json:"thread_id"`
	ThoughtID string `json:"thought_id"`
	Text      string `json:"text"`
}

// GenerateRequest represents the arguments for generate.
type GenerateRequest struct {
	ThreadID   string `json:"thread_id"`
	Regenerate bool   `json:"regenerate,omitempty"`
}

// SettingsUpdateRequest represents the arguments for settings_update.
type SettingsUpdateRequest struct {
	Provider         *string `json:"provider,omitempty"`
	APIKey           *string `json:"api_key,omitempty"`
	Model            *string `json:"model,omitempty"`
	GlobalPrompt     *string `json:"global_prompt,omitempty"`
	MaxContextTokens *int    `json:"max_context_tokens,omitempty"`
}

// PathRequest represents the arguments for export and import.
type PathRequest struct {
	Path string `json:"path,omitempty"`
}

// ThreadSummary is a thread plus its cached counters.
type ThreadSummary struct {
	thought.Thread
	ThoughtCount  int `json:"thought_count"`
	SelectedCount int `json:"selected_count"`
}

// Handler implementations

// HandleThreadCreate handles the thread_create tool call.
func (h *Handlers) HandleThreadCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t := h.store.CreateThread(ctx)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(t)
}

// HandleThreadList handles the thread_list tool call.
func (h *Handlers) HandleThreadList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.store.LoadAll(ctx)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}

	pinned := h.store.Pinned()
	unpinned := h.store.Unpinned()
	summaries := make([]ThreadSummary, 0, len(pinned)+len(unpinned))
	for _, t := range append(pinned, unpinned...) {
		summaries = append(summaries, ThreadSummary{
			Thread:        t,
			ThoughtCount:  h.store.ThoughtCount(t.ID),
			SelectedCount: h.store.SelectedCount(t.ID),
		})
	}
	return successResult(map[string]any{"threads": summaries})
}

// HandleThreadDelete handles the thread_delete tool call.
func (h *Handlers) HandleThreadDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThreadRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	h.store.DeleteThread(ctx, input.ThreadID)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "thread_id": input.ThreadID})
}

// HandleThreadPin handles the thread_pin tool call.
func (h *Handlers) HandleThreadPin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThreadRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	h.store.TogglePinned(ctx, input.ThreadID)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	t, _ := h.store.Thread(input.ThreadID)
	return successResult(t)
}

// HandleThreadSetPrompt handles the thread_set_prompt tool call.
func (h *Handlers) HandleThreadSetPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetPromptRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	var prompt *string
	if input.Prompt != "" {
		prompt = &input.Prompt
	}
	h.store.SetThreadPrompt(ctx, input.ThreadID, prompt)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	t, _ := h.store.Thread(input.ThreadID)
	return successResult(t)
}

// HandleThreadSetGenerationCount handles the thread_set_generation_count tool call.
func (h *Handlers) HandleThreadSetGenerationCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetGenerationCountRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	h.store.SetGenerationCount(ctx, input.ThreadID, input.Count)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	t, _ := h.store.Thread(input.ThreadID)
	return successResult(t)
}

// HandleThoughtList handles the thought_list tool call.
func (h *Handlers) HandleThoughtList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThoughtListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}

	thoughts := h.store.VisibleStream(input.ThreadID)
	if input.SelectedOnly {
		thoughts = h.store.SelectedThoughts(input.ThreadID)
	}
	return successResult(map[string]any{
		"thoughts":       thoughts,
		"total":          h.store.ThoughtCount(input.ThreadID),
		"selected":       h.store.SelectedCount(input.ThreadID),
		"has_candidates": h.store.HasUnselectedCandidates(input.ThreadID),
	})
}

// HandleThoughtAdd handles the thought_add tool call.
func (h *Handlers) HandleThoughtAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThoughtAddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if thought.TrimText(input.Text) == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	th := h.store.AddUserThought(ctx, input.ThreadID, input.Text)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	if th == nil {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	return successResult(th)
}

// HandleThoughtSelect handles the thought_select tool call.
func (h *Handlers) HandleThoughtSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.thoughtToggle(ctx, req, func(ctx context.Context, thoughtID, threadID string) {
		h.store.ToggleSelected(ctx, thoughtID, threadID)
	})
}

// HandleThoughtStar handles the thought_star tool call.
func (h *Handlers) HandleThoughtStar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.thoughtToggle(ctx, req, func(ctx context.Context, thoughtID, threadID string) {
		h.store.ToggleStarred(ctx, thoughtID, threadID)
	})
}

// thoughtToggle factors the shared load/validate/respond path of the
// select and star toggles.
func (h *Handlers) thoughtToggle(ctx context.Context, req mcp.CallToolRequest, toggle func(context.Context, string, string)) (*mcp.CallToolResult, error) {
	input, err := decode[ThoughtRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	if !h.thoughtExists(input.ThreadID, input.ThoughtID) {
		return errorResult(errors.NewNotFound(input.ThoughtID)), nil
	}

	toggle(ctx, input.ThoughtID, input.ThreadID)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"thoughts": h.store.VisibleStream(input.ThreadID),
		"total":    h.store.ThoughtCount(input.ThreadID),
		"selected": h.store.SelectedCount(input.ThreadID),
	})
}

// HandleThoughtEdit handles the thought_edit tool call.
func (h *Handlers) HandleThoughtEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThoughtEditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if thought.TrimText(input.Text) == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	if !h.thoughtExists(input.ThreadID, input.ThoughtID) {
		return errorResult(errors.NewNotFound(input.ThoughtID)), nil
	}

	h.store.EditThought(ctx, input.ThoughtID, input.ThreadID, input.Text)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"edited": true, "thought_id": input.ThoughtID})
}

// HandleThoughtDelete handles the thought_delete tool call.
func (h *Handlers) HandleThoughtDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThoughtRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	if !h.thoughtExists(input.ThreadID, input.ThoughtID) {
		return errorResult(errors.NewNotFound(input.ThoughtID)), nil
	}

	h.store.DeleteThought(ctx, input.ThoughtID, input.ThreadID)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"deleted": true, "thought_id": input.ThoughtID})
}

// HandleThoughtPrune handles the thought_prune tool call.
func (h *Handlers) HandleThoughtPrune(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThreadRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}
	before := h.store.ThoughtCount(input.ThreadID)

	h.store.PruneUnselected(ctx, input.ThreadID)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"pruned": before - h.store.ThoughtCount(input.ThreadID),
		"total":  h.store.ThoughtCount(input.ThreadID),
	})
}

// HandleGenerate handles the generate tool call.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	h.store.Generate(ctx, input.ThreadID, input.Regenerate)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"thoughts": h.store.VisibleStream(input.ThreadID),
		"total":    h.store.ThoughtCount(input.ThreadID),
		"selected": h.store.SelectedCount(input.ThreadID),
	})
}

// HandleGenerateTitle handles the generate_title tool call.
func (h *Handlers) HandleGenerateTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThreadRef](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, ok := h.loadThread(ctx, input.ThreadID); !ok {
		return errorResult(errors.NewNotFound(input.ThreadID)), nil
	}

	h.store.GenerateTitle(ctx, input.ThreadID)
	t, _ := h.store.Thread(input.ThreadID)
	return successResult(t)
}

// HandleStarredList handles the starred_list tool call.
func (h *Handlers) HandleStarredList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.store.RefreshStarred(ctx)
	if err := h.takeStoreErr(); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"thoughts": h.store.StarredThoughts()})
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.settings.Snapshot()
	s.APIKey = redactKey(s.APIKey)
	return successResult(s)
}

// HandleSettingsUpdate handles the settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	err = h.settings.Update(ctx, func(s *thought.Settings) {
		if input.Provider != nil {
			s.Provider = *input.Provider
		}
		if input.APIKey != nil {
			s.APIKey = *input.APIKey
		}
		if input.Model != nil {
			s.Model = *input.Model
		}
		if input.GlobalPrompt != nil {
			s.GlobalPrompt = *input.GlobalPrompt
		}
		if input.MaxContextTokens != nil {
			s.MaxContextTokens = *input.MaxContextTokens
		}
	})
	if err != nil {
		return errorResult(err), nil
	}

	s := h.settings.Snapshot()
	s.APIKey = redactKey(s.APIKey)
	return successResult(s)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := store.Export(ctx, h.store.Gateway(), h.cfg, h.exportsDir, store.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := store.Import(ctx, h.store.Gateway(), h.cfg, h.exportsDir, store.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	h.store.LoadAll(ctx)
	return successResult(result)
}

// loadThread ensures a thread and its thoughts are in memory.
func (h *Handlers) loadThread(ctx context.Context, threadID string) (thought.Thread, bool) {
	h.store.LoadAll(ctx)
	t, ok := h.store.Thread(threadID)
	if !ok {
		return thought.Thread{}, false
	}
	h.store.LoadForThread(ctx, threadID)
	return t, true
}

func (h *Handlers) thoughtExists(threadID, thoughtID string) bool {
	for _, th := range h.store.VisibleStream(threadID) {
		if th.ID == thoughtID {
			return true
		}
	}
	return false
}

// takeStoreErr drains the store's observable error field.
func (h *Handlers) takeStoreErr() error {
	err := h.store.Err()
	if err == nil {
		return nil
	}
	h.store.ClearErr()
	return err
}

// redactKey masks an API key for display, keeping the last four characters.
func redactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if e, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    e.Code,
			"message": e.Message,
			"status":  e.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if e.Code != errors.ErrInternal && e.Details != nil {
			errorObj["details"] = e.Details
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
