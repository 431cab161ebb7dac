package gsbatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileOps abstracts the filesystem mutations performed during reconciliation
// so failures can be simulated in tests.
type FileOps interface {
	// Move relocates src to dst, replacing dst if it exists.
	Move(src, dst string) error
	// Copy duplicates src at dst, replacing dst if it exists.
	Copy(src, dst string) error
	// Remove deletes the named file.
	Remove(path string) error
	// MkdirAll creates the directory path along with any missing parents.
	MkdirAll(path string) error
}

// OSFileOps is the os-backed FileOps implementation used outside of tests.
type OSFileOps struct{}

// Move renames src to dst, falling back to copy-and-remove when the rename
// crosses filesystem boundaries.
func (o OSFileOps) Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}
	if copyErr := o.Copy(src, dst); copyErr != nil {
		return copyErr
	}
	return os.Remove(src)
}

func (OSFileOps) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	return out.Close()
}

func (OSFileOps) Remove(path string) error { return os.Remove(path) }

func (OSFileOps) MkdirAll(path string) error { return os.MkdirAll(filepath.Clean(path), 0o755) }
