// Package fsio implements the filesystem collaborators the lint pipeline
// writes through: atomic replacement, canonical renames, directory listing
// for rename-conflict detection, and a case-sensitivity probe.
package fsio

import (
	"os"
	"path/filepath"
	"unicode"

	"github.com/pkg/errors"
)

// FS is the real filesystem. It satisfies the fixer's DirLister and the
// runner's Writer.
type FS struct{}

// ReadDirNames returns the entry names of dir in lexical order.
func (FS) ReadDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// WriteAtomic replaces path with content via temp file, fsync, and rename,
// so a failure mid-write never leaves a partial file behind. The mode of an
// existing file is preserved.
func (FS) WriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".skillint-tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "failed to carry over mode of %s", path)
		}
	}
	if _, err := tmp.Write(content); err != nil {
		return errors.Wrapf(err, "failed to write temp file for %s", path)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close temp file for %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	committed = true
	return nil
}

// Rename moves a file to its canonical path.
func (FS) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.Wrapf(err, "failed to rename %s to %s", oldPath, newPath)
	}
	return nil
}

// CaseInsensitiveDir reports whether dir lives on storage that resolves
// names case-insensitively. It re-stats the directory under a case-flipped
// spelling and compares file identity; a directory whose name carries no
// cased letters reports false.
func CaseInsensitiveDir(dir string) bool {
	base := filepath.Base(dir)
	flipped := flipFirstLetter(base)
	if flipped == base {
		return false
	}
	orig, err := os.Stat(dir)
	if err != nil {
		return false
	}
	alt, err := os.Stat(filepath.Join(filepath.Dir(dir), flipped))
	if err != nil {
		return false
	}
	return os.SameFile(orig, alt)
}

func flipFirstLetter(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLower(r):
			runes[i] = unicode.ToUpper(r)
			return string(runes)
		case unicode.IsUpper(r):
			runes[i] = unicode.ToLower(r)
			return string(runes)
		}
	}
	return s
}
