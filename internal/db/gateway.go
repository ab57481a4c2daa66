package db

import (
	"context"
	"database/sql"

	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// Gateway provides persistence for threads, thoughts, and settings over
// SQLite. All methods are safe for concurrent use; writes are individual
// statements or transactions, never held open across calls.
type Gateway struct {
	db *sql.DB
}

// NewGateway wraps an initialized database handle.
func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

const threadColumns = `id, title, created_at, updated_at, pinned, thread_prompt, generation_count, tokens_in, tokens_out`

// GetAllThreads returns every thread, newest-created first.
func (g *Gateway) GetAllThreads(ctx context.Context) ([]*thought.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads ORDER BY created_at DESC, id DESC`
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	defer rows.Close()

	var threads []*thought.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, errors.NewGatewayIO(err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	return threads, nil
}

// GetThread returns a single thread by id.
func (g *Gateway) GetThread(ctx context.Context, id string) (*thought.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE id = ?`
	row := g.db.QueryRowContext(ctx, query, id)
	t, err := scanThread(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	return t, nil
}

// SaveThread inserts or replaces a thread record.
func (g *Gateway) SaveThread(ctx context.Context, t *thought.Thread) error {
	query := `
		INSERT INTO threads (` + threadColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			pinned = excluded.pinned,
			thread_prompt = excluded.thread_prompt,
			generation_count = excluded.generation_count,
			tokens_in = excluded.tokens_in,
			tokens_out = excluded.tokens_out
	`
	_, err := g.db.ExecContext(ctx, query,
		t.ID, t.Title, t.CreatedAt, t.UpdatedAt, boolToInt(t.Pinned),
		toNullString(t.ThreadPrompt), t.GenerationCount,
		t.Stats.TokensIn, t.Stats.TokensOut,
	)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

// DeleteThread removes a thread and all of its thoughts in one transaction.
func (g *Gateway) DeleteThread(ctx context.Context, id string) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM thoughts WHERE thread_id = ?`, id); err != nil {
		return errors.NewGatewayIO(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id); err != nil {
		return errors.NewGatewayIO(err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

const thoughtColumns = `id, thread_id, author, text, created_at, selected, starred, edited, ord`

// GetThoughtsByThread returns a thread's thoughts ordered ascending by ord.
func (g *Gateway) GetThoughtsByThread(ctx context.Context, threadID string) ([]*thought.Thought, error) {
	query := `SELECT ` + thoughtColumns + ` FROM thoughts WHERE thread_id = ? ORDER BY ord ASC`
	rows, err := g.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	defer rows.Close()

	var thoughts []*thought.Thought
	for rows.Next() {
		th, err := scanThought(rows)
		if err != nil {
			return nil, errors.NewGatewayIO(err)
		}
		thoughts = append(thoughts, th)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	return thoughts, nil
}

// GetThoughtCountByThread returns the number of thoughts in a thread.
func (g *Gateway) GetThoughtCountByThread(ctx context.Context, threadID string) (int, error) {
	var count int
	err := g.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM thoughts WHERE thread_id = ?`, threadID).Scan(&count)
	if err != nil {
		return 0, errors.NewGatewayIO(err)
	}
	return count, nil
}

// GetSelectedThoughtCountByThread returns the number of selected thoughts in
// a thread. The UI uses this to decide whether an exited thread is an
// abandoned draft.
func (g *Gateway) GetSelectedThoughtCountByThread(ctx context.Context, threadID string) (int, error) {
	var count int
	err := g.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM thoughts WHERE thread_id = ? AND selected = 1`, threadID).Scan(&count)
	if err != nil {
		return 0, errors.NewGatewayIO(err)
	}
	return count, nil
}

// GetStarredThoughts returns all starred thoughts across threads, newest first.
func (g *Gateway) GetStarredThoughts(ctx context.Context) ([]*thought.Thought, error) {
	query := `SELECT ` + thoughtColumns + ` FROM thoughts WHERE starred = 1 ORDER BY created_at DESC, id DESC`
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	defer rows.Close()

	var thoughts []*thought.Thought
	for rows.Next() {
		th, err := scanThought(rows)
		if err != nil {
			return nil, errors.NewGatewayIO(err)
		}
		thoughts = append(thoughts, th)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	return thoughts, nil
}

// SaveThought inserts or replaces a single thought.
func (g *Gateway) SaveThought(ctx context.Context, th *thought.Thought) error {
	_, err := g.db.ExecContext(ctx, upsertThoughtQuery,
		th.ID, th.ThreadID, string(th.Author), th.Text, th.CreatedAt,
		boolToInt(th.Selected), boolToInt(th.Starred), boolToInt(th.Edited), th.Order,
	)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

// SaveThoughts inserts or replaces a batch of thoughts in one transaction.
func (g *Gateway) SaveThoughts(ctx context.Context, thoughts []*thought.Thought) error {
	if len(thoughts) == 0 {
		return nil
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	defer tx.Rollback()

	for _, th := range thoughts {
		_, err := tx.ExecContext(ctx, upsertThoughtQuery,
			th.ID, th.ThreadID, string(th.Author), th.Text, th.CreatedAt,
			boolToInt(th.Selected), boolToInt(th.Starred), boolToInt(th.Edited), th.Order,
		)
		if err != nil {
			return errors.NewGatewayIO(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

const upsertThoughtQuery = `
	INSERT INTO thoughts (` + thoughtColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text = excluded.text,
		selected = excluded.selected,
		starred = excluded.starred,
		edited = excluded.edited,
		ord = excluded.ord
`

// DeleteThought removes a single thought by id.
func (g *Gateway) DeleteThought(ctx context.Context, id string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM thoughts WHERE id = ?`, id)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

// DeleteThoughts removes a batch of thoughts in one transaction.
func (g *Gateway) DeleteThoughts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM thoughts WHERE id = ?`, id); err != nil {
			return errors.NewGatewayIO(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

// GetSettings returns the settings row, or defaults if none has been saved.
func (g *Gateway) GetSettings(ctx context.Context) (*thought.Settings, error) {
	query := `
		SELECT provider, api_key, model, global_prompt, max_context_tokens,
			total_tokens_in, total_tokens_out
		FROM settings WHERE id = 1
	`
	var s thought.Settings
	err := g.db.QueryRowContext(ctx, query).Scan(
		&s.Provider, &s.APIKey, &s.Model, &s.GlobalPrompt,
		&s.MaxContextTokens, &s.TotalTokensIn, &s.TotalTokensOut,
	)
	if err == sql.ErrNoRows {
		return &thought.Settings{}, nil
	}
	if err != nil {
		return nil, errors.NewGatewayIO(err)
	}
	return &s, nil
}

// SaveSettings inserts or replaces the single settings row.
func (g *Gateway) SaveSettings(ctx context.Context, s *thought.Settings) error {
	query := `
		INSERT INTO settings (
			id, provider, api_key, model, global_prompt, max_context_tokens,
			total_tokens_in, total_tokens_out
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			api_key = excluded.api_key,
			model = excluded.model,
			global_prompt = excluded.global_prompt,
			max_context_tokens = excluded.max_context_tokens,
			total_tokens_in = excluded.total_tokens_in,
			total_tokens_out = excluded.total_tokens_out
	`
	_, err := g.db.ExecContext(ctx, query,
		s.Provider, s.APIKey, s.Model, s.GlobalPrompt, s.MaxContextTokens,
		s.TotalTokensIn, s.TotalTokensOut,
	)
	if err != nil {
		return errors.NewGatewayIO(err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanThread scans a single row into a Thread struct.
func scanThread(row scanner) (*thought.Thread, error) {
	var (
		t            thought.Thread
		pinned       int
		threadPrompt sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &pinned,
		&threadPrompt, &t.GenerationCount, &t.Stats.TokensIn, &t.Stats.TokensOut,
	)
	if err != nil {
		return nil, err
	}
	t.Pinned = pinned != 0
	t.ThreadPrompt = fromNullString(threadPrompt)
	return &t, nil
}

// scanThought scans a single row into a Thought struct.
func scanThought(row scanner) (*thought.Thought, error) {
	var (
		th       thought.Thought
		author   string
		selected int
		starred  int
		edited   int
	)
	err := row.Scan(
		&th.ID, &th.ThreadID, &author, &th.Text, &th.CreatedAt,
		&selected, &starred, &edited, &th.Order,
	)
	if err != nil {
		return nil, err
	}
	th.Author = thought.Author(author)
	th.Selected = selected != 0
	th.Starred = starred != 0
	th.Edited = edited != 0
	return &th, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
