package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/settings"
	"github.com/fivol/ai-threads/internal/store"
	"github.com/fivol/ai-threads/internal/thought"
)

// app bundles the collaborators CLI commands need.
type app struct {
	store      *store.Store
	settings   *settings.Store
	cfg        *config.Config
	exportsDir string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	capp := &cli.App{
		Name:    "threads",
		Usage:   "Local thread-of-thoughts store with AI continuation",
		Version: Version,
		Commands: []*cli.Command{
			newCmd(a),
			listCmd(a),
			showCmd(a),
			deleteCmd(a),
			pinCmd(a),
			promptCmd(a),
			genCountCmd(a),
			addCmd(a),
			selectCmd(a),
			starCmd(a),
			editCmd(a),
			removeCmd(a),
			pruneCmd(a),
			generateCmd(a),
			titleCmd(a),
			starredCmd(a),
			settingsCmd(a),
			exportCmd(a),
			importCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	capp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return capp
}

// newCmd creates the new command.
func newCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a new empty thread",
		Action: func(c *cli.Context) error {
			t := a.store.CreateThread(c.Context)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(t)
		},
	}
}

// listCmd creates the list command.
func listCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all threads, pinned first",
		Action: func(c *cli.Context) error {
			a.store.LoadAll(c.Context)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}

			type threadRow struct {
				thought.Thread
				ThoughtCount  int `json:"thought_count"`
				SelectedCount int `json:"selected_count"`
			}
			var rows []threadRow
			for _, t := range append(a.store.Pinned(), a.store.Unpinned()...) {
				rows = append(rows, threadRow{
					Thread:        t,
					ThoughtCount:  a.store.ThoughtCount(t.ID),
					SelectedCount: a.store.SelectedCount(t.ID),
				})
			}
			return outputJSON(map[string]any{"threads": rows})
		},
	}
}

// showCmd creates the show command.
func showCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a thread's visible stream",
		ArgsUsage: "<thread-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "selected", Aliases: []string{"s"}, Usage: "Only selected thoughts"},
		},
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			thoughts := a.store.VisibleStream(threadID)
			if c.Bool("selected") {
				thoughts = a.store.SelectedThoughts(threadID)
			}
			t, _ := a.store.Thread(threadID)
			return outputJSON(map[string]any{
				"thread":         t,
				"thoughts":       thoughts,
				"total":          a.store.ThoughtCount(threadID),
				"selected":       a.store.SelectedCount(threadID),
				"has_candidates": a.store.HasUnselectedCandidates(threadID),
			})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a thread and all its thoughts",
		ArgsUsage: "<thread-id>",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.DeleteThread(c.Context, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": true, "thread_id": threadID})
		},
	}
}

// pinCmd creates the pin command.
func pinCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Toggle a thread's pinned flag",
		ArgsUsage: "<thread-id>",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.TogglePinned(c.Context, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			t, _ := a.store.Thread(threadID)
			return outputJSON(t)
		},
	}
}

// promptCmd creates the prompt command.
func promptCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "prompt",
		Usage:     "Set or clear a thread's generation prompt",
		ArgsUsage: "<thread-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "set", Usage: "Thread prompt text"},
			&cli.BoolFlag{Name: "clear", Usage: "Remove the thread prompt"},
		},
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			var prompt *string
			if !c.Bool("clear") {
				p := c.String("set")
				if p == "" {
					return outputError(errors.NewInvalidRequest("pass --set <prompt> or --clear"))
				}
				prompt = &p
			}
			a.store.SetThreadPrompt(c.Context, threadID, prompt)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			t, _ := a.store.Thread(threadID)
			return outputJSON(t)
		},
	}
}

// genCountCmd creates the gen-count command.
func genCountCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "gen-count",
		Usage:     "Set how many candidates each generation requests (1-10)",
		ArgsUsage: "<thread-id> <count>",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("count is required"))
			}
			count, perr := strconv.Atoi(c.Args().Get(1))
			if perr != nil {
				return outputError(errors.NewInvalidRequest("count must be an integer"))
			}

			a.store.SetGenerationCount(c.Context, threadID, count)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			t, _ := a.store.Thread(threadID)
			return outputJSON(t)
		},
	}
}

// addCmd creates the add command.
func addCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Append a user thought (argument or stdin)",
		ArgsUsage: "<thread-id> [text]",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			text := strings.Join(c.Args().Slice()[1:], " ")
			if text == "" && stdinHasData() {
				text, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}
			if thought.TrimText(text) == "" {
				return outputError(errors.NewInvalidRequest("text is required"))
			}

			th := a.store.AddUserThought(c.Context, threadID, text)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(th)
		},
	}
}

// selectCmd creates the select command.
func selectCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "select",
		Usage:     "Toggle a thought's selected flag (selecting a candidate discards older ones)",
		ArgsUsage: "<thread-id> <thought-id>",
		Action: func(c *cli.Context) error {
			threadID, thoughtID, err := requireThought(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.ToggleSelected(c.Context, thoughtID, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"thoughts": a.store.VisibleStream(threadID),
				"selected": a.store.SelectedCount(threadID),
			})
		},
	}
}

// starCmd creates the star command.
func starCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "star",
		Usage:     "Toggle a thought's starred flag",
		ArgsUsage: "<thread-id> <thought-id>",
		Action: func(c *cli.Context) error {
			threadID, thoughtID, err := requireThought(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.ToggleStarred(c.Context, thoughtID, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"starred_total": len(a.store.StarredThoughts())})
		},
	}
}

// editCmd creates the edit command.
func editCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace a thought's text",
		ArgsUsage: "<thread-id> <thought-id> <text>",
		Action: func(c *cli.Context) error {
			threadID, thoughtID, err := requireThought(a, c)
			if err != nil {
				return outputError(err)
			}
			text := strings.Join(c.Args().Slice()[2:], " ")
			if thought.TrimText(text) == "" {
				return outputError(errors.NewInvalidRequest("text is required"))
			}

			a.store.EditThought(c.Context, thoughtID, threadID, text)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"edited": true, "thought_id": thoughtID})
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete a single thought",
		ArgsUsage: "<thread-id> <thought-id>",
		Action: func(c *cli.Context) error {
			threadID, thoughtID, err := requireThought(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.DeleteThought(c.Context, thoughtID, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"deleted": true, "thought_id": thoughtID})
		},
	}
}

// pruneCmd creates the prune command.
func pruneCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "prune",
		Usage:     "Garbage-collect unselected candidates, keeping the newest five",
		ArgsUsage: "<thread-id>",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}
			before := a.store.ThoughtCount(threadID)

			a.store.PruneUnselected(c.Context, threadID)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"pruned": before - a.store.ThoughtCount(threadID),
				"total":  a.store.ThoughtCount(threadID),
			})
		},
	}
}

// generateCmd creates the generate command. Ctrl-C cancels the in-flight
// request without surfacing an error.
func generateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate continuation candidates from the selected thoughts",
		ArgsUsage: "<thread-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "regenerate", Aliases: []string{"r"}, Usage: "Discard existing candidates first"},
		},
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			sigCtx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			done := make(chan struct{})
			go func() {
				select {
				case <-sigCtx.Done():
					a.store.Cancel()
				case <-done:
				}
			}()

			a.store.Generate(c.Context, threadID, c.Bool("regenerate"))
			close(done)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}

			// Best-effort: name the thread once something is selected.
			a.store.GenerateTitle(c.Context, threadID)

			return outputJSON(map[string]any{
				"thoughts": a.store.VisibleStream(threadID),
				"total":    a.store.ThoughtCount(threadID),
			})
		},
	}
}

// titleCmd creates the title command.
func titleCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "title",
		Usage:     "Generate a title for an untitled thread (best-effort)",
		ArgsUsage: "<thread-id>",
		Action: func(c *cli.Context) error {
			threadID, err := requireThread(a, c)
			if err != nil {
				return outputError(err)
			}

			a.store.GenerateTitle(c.Context, threadID)
			t, _ := a.store.Thread(threadID)
			return outputJSON(t)
		},
	}
}

// starredCmd creates the starred command.
func starredCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "starred",
		Usage: "List starred thoughts across all threads",
		Action: func(c *cli.Context) error {
			a.store.RefreshStarred(c.Context)
			if err := takeErr(a); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"thoughts": a.store.StarredThoughts()})
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or update provider settings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Usage: "Provider name or base URL"},
			&cli.StringFlag{Name: "api-key", Usage: "Provider API key"},
			&cli.StringFlag{Name: "model", Usage: "Model identifier"},
			&cli.StringFlag{Name: "global-prompt", Usage: "Store-wide generation prompt"},
			&cli.IntFlag{Name: "max-context-tokens", Usage: "Context budget for generation"},
		},
		Action: func(c *cli.Context) error {
			if c.NumFlags() > 0 {
				err := a.settings.Update(c.Context, func(s *thought.Settings) {
					if c.IsSet("provider") {
						s.Provider = c.String("provider")
					}
					if c.IsSet("api-key") {
						s.APIKey = c.String("api-key")
					}
					if c.IsSet("model") {
						s.Model = c.String("model")
					}
					if c.IsSet("global-prompt") {
						s.GlobalPrompt = c.String("global-prompt")
					}
					if c.IsSet("max-context-tokens") {
						s.MaxContextTokens = c.Int("max-context-tokens")
					}
				})
				if err != nil {
					return outputError(err)
				}
			}

			s := a.settings.Snapshot()
			if s.APIKey != "" {
				s.APIKey = "****"
			}
			return outputJSON(s)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export threads to a JSON document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination path (.json)"},
			&cli.StringFlag{Name: "thread", Usage: "Only export this thread id"},
		},
		Action: func(c *cli.Context) error {
			input := store.ExportInput{Path: c.String("path")}
			if id := c.String("thread"); id != "" {
				input.ThreadIDs = []string{id}
			}
			output, err := store.Export(c.Context, a.store.Gateway(), a.cfg, a.exportsDir, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import threads from a JSON export document",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}
			output, err := store.Import(c.Context, a.store.Gateway(), a.cfg, a.exportsDir, store.ImportInput{
				Path: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			a.store.LoadAll(c.Context)
			return outputJSON(output)
		},
	}
}

// Helper functions

// requireThread loads state and validates the thread-id argument.
func requireThread(a *app, c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", errors.NewInvalidRequest("thread-id is required")
	}
	threadID := c.Args().First()

	a.store.LoadAll(c.Context)
	if err := takeErr(a); err != nil {
		return "", err
	}
	if _, ok := a.store.Thread(threadID); !ok {
		return "", errors.NewNotFound(threadID)
	}
	a.store.LoadForThread(c.Context, threadID)
	if err := takeErr(a); err != nil {
		return "", err
	}
	return threadID, nil
}

// requireThought validates the thread-id and thought-id arguments.
func requireThought(a *app, c *cli.Context) (string, string, error) {
	threadID, err := requireThread(a, c)
	if err != nil {
		return "", "", err
	}
	if c.NArg() < 2 {
		return "", "", errors.NewInvalidRequest("thought-id is required")
	}
	thoughtID := c.Args().Get(1)
	for _, th := range a.store.VisibleStream(threadID) {
		if th.ID == thoughtID {
			return threadID, thoughtID, nil
		}
	}
	return "", "", errors.NewNotFound(thoughtID)
}

// takeErr drains the store's observable error field.
func takeErr(a *app) error {
	err := a.store.Err()
	if err == nil {
		return nil
	}
	a.store.ClearErr()
	return err
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if e, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", e.Code, e.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
