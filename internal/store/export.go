package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/errors"
	"github.com/fivol/ai-threads/internal/thought"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path      string   // optional, default: <exportsDir>/threads-<timestamp>.json
	ThreadIDs []string // optional filter; empty exports every thread
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Threads    int    `json:"threads"`
	Thoughts   int    `json:"thoughts"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes threads and their thoughts to a single JSON document.
// The file is written to a temp path and atomically renamed into place, so
// a failure preserves any existing file.
func Export(ctx context.Context, gw Gateway, cfg *config.Config, exportsDir string, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(exportsDir, fmt.Sprintf("threads-%s.json", now.Format("2006-01-02T150405")))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, exportsDir, cfg); err != nil {
		return nil, err
	}

	threads, err := gw.GetAllThreads(ctx)
	if err != nil {
		return nil, err
	}
	if len(input.ThreadIDs) > 0 {
		wanted := make(map[string]bool, len(input.ThreadIDs))
		for _, id := range input.ThreadIDs {
			wanted[id] = true
		}
		filtered := threads[:0]
		for _, t := range threads {
			if wanted[t.ID] {
				filtered = append(filtered, t)
			}
		}
		threads = filtered
		if len(threads) == 0 {
			return nil, errors.NewNotFound("no matching threads")
		}
	}

	doc := thought.ExportDocument{Threads: make([]thought.ExportThread, 0, len(threads))}
	thoughtCount := 0
	for _, t := range threads {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("export")
		default:
		}
		thoughts, err := gw.GetThoughtsByThread(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		doc.Threads = append(doc.Threads, thought.ThreadToExport(t, thoughts))
		thoughtCount += len(thoughts)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename to preserve any
	// existing file on failure.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		os.Remove(tempPath)
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	return &ExportOutput{
		Path:       exportPath,
		Threads:    len(doc.Threads),
		Thoughts:   thoughtCount,
		ExportedAt: now.Unix(),
	}, nil
}
