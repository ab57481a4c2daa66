package mcp

import "github.com/mark3labs/mcp-go/mcp"

var threadCreateToolDef = mcp.NewTool("thread_create",
	mcp.WithDescription("Create a new empty thread and return it."),
)

var threadListToolDef = mcp.NewTool("thread_list",
	mcp.WithDescription("List all threads with their thought counts, pinned first."),
)

var threadDeleteToolDef = mcp.NewTool("thread_delete",
	mcp.WithDescription("Delete a thread and every thought in it."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
)

var threadPinToolDef = mcp.NewTool("thread_pin",
	mcp.WithDescription("Toggle a thread's pinned flag."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
)

var threadSetPromptToolDef = mcp.NewTool("thread_set_prompt",
	mcp.WithDescription("Set or clear a thread's generation prompt."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("prompt", mcp.Description("Thread prompt; omit or pass empty to clear")),
)

var threadSetGenerationCountToolDef = mcp.NewTool("thread_set_generation_count",
	mcp.WithDescription("Set how many candidates each generation requests (1-10)."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithNumber("count", mcp.Required(), mcp.Description("Candidates per generation")),
)

var thoughtListToolDef = mcp.NewTool("thought_list",
	mcp.WithDescription("Return a thread's visible stream, ordered."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithBoolean("selected_only", mcp.Description("Return only selected thoughts")),
)

var thoughtAddToolDef = mcp.NewTool("thought_add",
	mcp.WithDescription("Append a user-authored thought to a thread."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Thought text")),
)

var thoughtSelectToolDef = mcp.NewTool("thought_select",
	mcp.WithDescription("Toggle a thought's selected flag. Selecting an AI candidate discards all older unselected candidates in the thread."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("thought_id", mcp.Required(), mcp.Description("Thought ULID")),
)

var thoughtStarToolDef = mcp.NewTool("thought_star",
	mcp.WithDescription("Toggle a thought's starred flag."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("thought_id", mcp.Required(), mcp.Description("Thought ULID")),
)

var thoughtEditToolDef = mcp.NewTool("thought_edit",
	mcp.WithDescription("Replace a thought's text and mark it edited."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("thought_id", mcp.Required(), mcp.Description("Thought ULID")),
	mcp.WithString("text", mcp.Required(), mcp.Description("New text")),
)

var thoughtDeleteToolDef = mcp.NewTool("thought_delete",
	mcp.WithDescription("Delete a single thought."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithString("thought_id", mcp.Required(), mcp.Description("Thought ULID")),
)

var thoughtPruneToolDef = mcp.NewTool("thought_prune",
	mcp.WithDescription("Garbage-collect a thread's unselected candidates, keeping the newest five."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
)

var generateToolDef = mcp.NewTool("generate",
	mcp.WithDescription("Generate continuation candidates for a thread from its selected thoughts."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
	mcp.WithBoolean("regenerate", mcp.Description("Discard existing candidates and start over")),
)

var generateTitleToolDef = mcp.NewTool("generate_title",
	mcp.WithDescription("Generate a title for an untitled thread. Best-effort."),
	mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread ULID")),
)

var starredListToolDef = mcp.NewTool("starred_list",
	mcp.WithDescription("List starred thoughts across all threads."),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Return provider settings (API key redacted) and global token counters."),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update",
	mcp.WithDescription("Update provider settings. Only provided fields change."),
	mcp.WithString("provider", mcp.Description("Provider name or base URL")),
	mcp.WithString("api_key", mcp.Description("Provider API key")),
	mcp.WithString("model", mcp.Description("Model identifier")),
	mcp.WithString("global_prompt", mcp.Description("Store-wide generation prompt")),
	mcp.WithNumber("max_context_tokens", mcp.Description("Context budget for generation")),
)

var exportToolDef = mcp.NewTool("export",
	mcp.WithDescription("Export threads to a JSON document."),
	mcp.WithString("path", mcp.Description("Destination path (.json); defaults into the exports directory")),
)

var importToolDef = mcp.NewTool("import",
	mcp.WithDescription("Import threads from a JSON export document. All imported thoughts become selected; fresh ids are assigned."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source path (.json)")),
)
