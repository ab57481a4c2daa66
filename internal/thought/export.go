package thought

// ExportDocument is the top-level interchange format: a single JSON document
// holding complete threads with their thoughts. Internal ids are included
// for traceability but are regenerated on import.
type ExportDocument struct {
	Threads []ExportThread `json:"threads"`
}

// ExportThread represents one thread in an export document.
type ExportThread struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
	Pinned       bool            `json:"pinned"`
	ThreadPrompt *string         `json:"thread_prompt,omitempty"`
	Thoughts     []ExportThought `json:"thoughts"`
}

// ExportThought represents one thought in an export document. The selected
// flag is intentionally absent: everything exported has already passed the
// user's curation, so import treats every thought as selected.
type ExportThought struct {
	ID        string `json:"id"`
	Author    Author `json:"author"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	Starred   bool   `json:"starred"`
	Edited    bool   `json:"edited"`
	Order     int64  `json:"order"`
}

// ThreadToExport converts a thread and its thoughts to export form.
func ThreadToExport(t *Thread, thoughts []*Thought) ExportThread {
	et := ExportThread{
		ID:           t.ID,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Pinned:       t.Pinned,
		ThreadPrompt: t.ThreadPrompt,
		Thoughts:     make([]ExportThought, 0, len(thoughts)),
	}
	for _, th := range thoughts {
		et.Thoughts = append(et.Thoughts, ExportThought{
			ID:        th.ID,
			Author:    th.Author,
			Text:      th.Text,
			CreatedAt: th.CreatedAt,
			Starred:   th.Starred,
			Edited:    th.Edited,
			Order:     th.Order,
		})
	}
	return et
}
