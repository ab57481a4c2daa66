package thought

import "strings"

// Author identifies who produced a thought.
type Author string

const (
	AuthorUser Author = "user"
	AuthorAI   Author = "ai"
)

// SentinelTitle is the title every new thread starts with. Automatic title
// generation only fires while the title still equals this value.
const SentinelTitle = "Untitled"

// DefaultGenerationCount is the number of candidates requested per
// generation when a thread has no explicit setting.
const DefaultGenerationCount = 3

// Thought is an atomic unit of text within a thread. User-authored thoughts
// are selected at creation and never garbage-collected; AI-authored thoughts
// start unselected ("candidates") and are ephemeral until selected.
type Thought struct {
	// ID is a ULID that uniquely identifies this thought
	ID string `json:"id"`

	// ThreadID is the owning thread's ULID
	ThreadID string `json:"thread_id"`

	// Author is "user" or "ai"
	Author Author `json:"author"`

	// Text is the thought content, trimmed of surrounding whitespace
	Text string `json:"text"`

	// CreatedAt is the Unix timestamp when the thought was created
	CreatedAt int64 `json:"created_at"`

	// Selected marks membership in the permanent thread
	Selected bool `json:"selected"`

	// Starred marks the thought for the cross-thread starred view
	Starred bool `json:"starred"`

	// Edited is set permanently once the text has been changed
	Edited bool `json:"edited"`

	// Order is unique per thread and strictly increasing with insertion
	Order int64 `json:"order"`
}

// Stats holds a thread's cumulative token usage.
type Stats struct {
	TokensIn  int64 `json:"tokens_in"`
	TokensOut int64 `json:"tokens_out"`
}

// Thread is a persistent, titled container for a line of thinking.
type Thread struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
	Pinned          bool    `json:"pinned"`
	ThreadPrompt    *string `json:"thread_prompt,omitempty"`
	GenerationCount int     `json:"generation_count"`
	Stats           Stats   `json:"stats"`
}

// Settings holds the persisted provider configuration and the global
// cumulative token counters. Stored as a single row by the gateway.
type Settings struct {
	Provider         string `json:"provider"`
	APIKey           string `json:"api_key"`
	Model            string `json:"model"`
	GlobalPrompt     string `json:"global_prompt"`
	MaxContextTokens int    `json:"max_context_tokens"`
	TotalTokensIn    int64  `json:"total_tokens_in"`
	TotalTokensOut   int64  `json:"total_tokens_out"`
}

// Configured reports whether generation can run at all.
func (s *Settings) Configured() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.Model) != ""
}

// TrimText normalizes thought text: surrounding whitespace is stripped,
// interior content is left alone.
func TrimText(s string) string {
	return strings.TrimSpace(s)
}
