package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivol/ai-threads/internal/config"
	"github.com/fivol/ai-threads/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // for import (read file)
	PathCheckWrite                      // for export (write file)
)

// ValidatePath validates an import/export path:
// 1. no traversal (.. sequences)
// 2. .json extension
// 3. file directly in the exports directory or an allowed_paths entry
//    (no subdirectories), unless allow_unsafe_paths
// 4. neither the file nor its parent directory is a symlink
func ValidatePath(path string, mode PathCheckMode, exportsDir string, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".json" {
		return errors.NewInvalidRequest("path must have .json extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound(path)
		}
	}

	// Symlink restrictions apply even with allow_unsafe_paths.
	if info, err := os.Lstat(absPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
	}

	if cfg != nil && cfg.AllowUnsafePaths {
		return nil
	}

	allowedDirs := allowedDirs(exportsDir, cfg)
	parentDir := filepath.Dir(absPath)
	if !containsDir(allowedDirs, parentDir) {
		return errors.NewInvalidRequest(
			fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
				allowedDirs))
	}

	if info, err := os.Lstat(parentDir); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	return nil
}

// allowedDirs returns the exports directory plus any configured allowlist
// entries, cleaned. Relative allowlist entries are ignored.
func allowedDirs(exportsDir string, cfg *config.Config) []string {
	dirs := []string{filepath.Clean(exportsDir)}
	if cfg == nil {
		return dirs
	}
	for _, dir := range cfg.AllowedPaths {
		if filepath.IsAbs(dir) {
			dirs = append(dirs, filepath.Clean(dir))
		}
	}
	return dirs
}

func containsDir(dirs []string, dir string) bool {
	dir = filepath.Clean(dir)
	for _, d := range dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// containsTraversal reports whether any path component is "..".
func containsTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
