package store

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string // required
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Threads   int      `json:"threads"`
	Thoughts  int      `json:"thoughts"`
	ThreadIDs []string `json:"thread_ids"`
}

// importDocument mirrors thought.ExportDocument with a pointer slice so a
// missing threads key is distinguishable from an empty one.
type importDocument struct {
	Threads *[]thought.ExportThread `json:"threads"`
}

// Import reads an export document and recreates its threads. Every imported
// thought is marked selected: it already passed the user's curation when it
// was exported. Fresh ids are generated throughout, so importing the same
// file twice yields two copies of each thread; that is expected, not a bug.
// A malformed document (missing or non-array threads) fails the whole
// import before anything is written.
func Import(ctx context.Context, gw Gateway, cfg *config.Config, exportsDir string, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if err := ValidatePath(input.Path, PathCheckRead, exportsDir, cfg); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInvalidRequest("invalid import document: " + err.Error())
	}
	if doc.Threads == nil {
		return nil, errors.NewInvalidRequest("invalid import document: threads array missing")
	}

	out := &ImportOutput{}
	ts := time.Now().Unix()
	for _, et := range *doc.Threads {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("import")
		default:
		}

		threadID, err := newULID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		title := et.Title
		if title == "" {
			title = thought.SentinelTitle
		}
		createdAt := et.CreatedAt
		if createdAt == 0 {
			createdAt = ts
		}
		updatedAt := et.UpdatedAt
		if updatedAt == 0 {
			updatedAt = createdAt
		}
		t := &thought.Thread{
			ID:              threadID,
			Title:           title,
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
			Pinned:          et.Pinned,
			ThreadPrompt:    et.ThreadPrompt,
			GenerationCount: thought.DefaultGenerationCount,
		}
		if err := gw.SaveThread(ctx, t); err != nil {
			return nil, err
		}

		batch := make([]*thought.Thought, 0, len(et.Thoughts))
		for _, eth := range et.Thoughts {
			thoughtID, err := newULID()
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			thCreated := eth.CreatedAt
			if thCreated == 0 {
				thCreated = ts
			}
			author := eth.Author
			if author != thought.AuthorUser && author != thought.AuthorAI {
				author = thought.AuthorUser
			}
			batch = append(batch, &thought.Thought{
				ID:        thoughtID,
				ThreadID:  threadID,
				Author:    author,
				Text:      thought.TrimText(eth.Text),
				CreatedAt: thCreated,
				Selected:  true,
				Starred:   eth.Starred,
				Edited:    eth.Edited,
				Order:     eth.Order,
			})
		}
		if err := gw.SaveThoughts(ctx, batch); err != nil {
			return nil, err
		}

		out.Threads++
		out.Thoughts += len(batch)
		out.ThreadIDs = append(out.ThreadIDs, threadID)
	}

	return out, nil
}
