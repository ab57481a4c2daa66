package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivol/ai-threads/internal/ai"
	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/db"
	"github.com/fivol/ai-threads/internal/mcp"
	"github.com/fivol/ai-threads/internal/settings"
	"github.com/fivol/ai-threads/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"new": true, "list": true, "show": true, "delete": true,
	"pin": true, "prompt": true, "gen-count": true,
	"add": true, "select": true, "star": true, "edit": true,
	"remove": true, "prune": true, "generate": true, "title": true,
	"starred": true, "settings": true,
	"export": true, "import": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _   _                        _
  | |_| |_  _ _ ___ __ _ __| |___
  |  _| ' \| '_/ -_) _' / _' (_-<
   \__|_||_|_| \___\__,_\__,_/__/

  Thread-of-thoughts store with AI continuation

  Usage: threads <command> [options]
         threads --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		capp := newCLIApp(&app{})
		if err := capp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".threads")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	gw := db.NewGateway(database)
	se := settings.NewStore(gw)
	if err := se.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load settings: %v\n", err)
		os.Exit(1)
	}
	aiGW := ai.NewResolver(func() (string, string) {
		s := se.Snapshot()
		return s.Provider, s.APIKey
	})
	st := store.New(gw, aiGW, se)

	exportsDir := filepath.Join(baseDir, "exports")

	// CLI mode: known subcommand
	if isCLIMode() {
		capp := newCLIApp(&app{store: st, settings: se, cfg: cfg, exportsDir: exportsDir})
		if err := capp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'threads --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(st, se, cfg, exportsDir, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
