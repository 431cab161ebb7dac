package gsbatch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Discoverer expands file and directory arguments into the ordered list of
// candidate input files, applying the extension allow-list.
type Discoverer struct {
	filter    extFilter
	recursive bool
	logger    *slog.Logger
	// visited guards against symlink cycles during recursive traversal,
	// keyed by resolved directory path.
	visited map[string]struct{}
}

// NewDiscoverer creates a Discoverer for the given comma-separated,
// case-insensitive extension allow-list.
func NewDiscoverer(filter string, recursive bool, loggerHandler slog.Handler) *Discoverer {
	logger := slog.New(loggerHandler).With(slog.String("component", "discovery"))
	return &Discoverer{
		filter:    parseFilter(filter),
		recursive: recursive,
		logger:    logger,
		visited:   make(map[string]struct{}),
	}
}

// Discover expands the path arguments in order. Nonexistent arguments are a
// fatal error, reported before any processing begins. Traversal permission
// errors are logged as warnings and the affected subtree is skipped.
func (d *Discoverer) Discover(paths []string) ([]string, error) {
	// Precondition pass: every argument must exist before any is expanded.
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %q", ErrPathNotFound, p)
			}
			return nil, fmt.Errorf("cannot access input path %q: %w", p, err)
		}
	}

	var found []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			// Existed during the precondition pass; treat disappearance as fatal.
			return nil, fmt.Errorf("%w: %q", ErrPathNotFound, p)
		}
		if info.IsDir() {
			found = d.walkDir(p, found)
			continue
		}
		if d.filter.match(p) {
			found = append(found, p)
		} else {
			d.logger.Debug("Argument excluded by filter", slog.String("path", p))
		}
	}
	return found, nil
}

// walkDir appends matching files under dir to acc. Non-recursive mode lists
// only immediate children; recursive mode descends, following symbolic links.
func (d *Discoverer) walkDir(dir string, acc []string) []string {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		d.logger.Warn("Cannot resolve directory, skipping subtree",
			slog.String("path", dir), slog.String("error", err.Error()))
		return acc
	}
	if _, seen := d.visited[resolved]; seen {
		d.logger.Debug("Symlink cycle detected, skipping", slog.String("path", dir))
		return acc
	}
	d.visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		d.logger.Warn("Cannot read directory, skipping subtree",
			slog.String("path", dir), slog.String("error", err.Error()))
		return acc
	}
	for _, entry := range entries {
		child := filepath.Join(dir, entry.Name())
		typ := entry.Type()
		isDir := entry.IsDir()
		if typ&fs.ModeSymlink != 0 {
			// Follow the link to classify the target.
			info, statErr := os.Stat(child)
			if statErr != nil {
				d.logger.Warn("Broken symbolic link skipped",
					slog.String("path", child), slog.String("error", statErr.Error()))
				continue
			}
			isDir = info.IsDir()
		}
		if isDir {
			if d.recursive {
				acc = d.walkDir(child, acc)
			}
			continue
		}
		if d.filter.match(child) {
			acc = append(acc, child)
		}
	}
	return acc
}

// extFilter is a lowercase extension allow-list without leading dots.
type extFilter map[string]struct{}

// parseFilter builds an extFilter from a comma-separated list. Entries are
// trimmed, lowercased and stripped of leading dots; empty entries are ignored.
func parseFilter(s string) extFilter {
	f := make(extFilter)
	for _, part := range strings.Split(s, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			f[ext] = struct{}{}
		}
	}
	return f
}

// match reports whether the path's extension is in the allow-list.
func (f extFilter) match(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := f[ext]
	return ok
}
