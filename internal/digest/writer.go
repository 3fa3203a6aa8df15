package digest

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/storage"
)

// ResolveDestination trims whitespace and surrounding slashes from p and
// falls back to DefaultDestination when nothing is left.
func ResolveDestination(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return DefaultDestination
	}
	return p
}

// Write stores content at destination, replacing any previous content.
// A missing parent directory is created first; failing to create it is
// logged and the write is attempted anyway.
func Write(store storage.Provider, destination, content string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	dest := ResolveDestination(destination)

	exists, err := store.Exists(dest)
	if err != nil {
		logger.Warn("digest: stat destination failed",
			slog.String("path", dest),
			slog.String("error", err.Error()))
	}
	if !exists {
		if dir := parentDir(dest); dir != "" {
			if err := store.MakeDir(dir); err != nil && !errors.Is(err, apperr.ErrAlreadyExists) {
				logger.Warn("digest: create destination directory failed",
					slog.String("dir", dir),
					slog.String("error", fmt.Errorf("%w: %w", apperr.ErrDirectoryCreate, err).Error()))
			}
		}
	}

	if err := store.Write(dest, []byte(content)); err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrWrite, dest, err)
	}
	logger.Debug("digest: written", slog.String("path", dest), slog.Int("bytes", len(content)))
	return nil
}

// parentDir returns every segment of p except the last, or "" at the root.
func parentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
