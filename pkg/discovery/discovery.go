// Package discovery locates SKILL.md documents under a repository root or an
// explicit list of paths and loads their contents.
//
// Root discovery prefers the git index (tracked plus untracked-but-not-ignored
// files) and falls back to walking the tree when git is unavailable or lists
// nothing. Each skill directory contributes at most one document, with
// SKILL.md preferred over skill.md.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillint/pkg/logger"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// skippedDirs are never descended into during tree walks.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Discovery resolves skill document locations relative to a root directory.
type Discovery struct {
	root    string
	ignores []string
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithRoot sets the directory relative paths resolve against and root
// discovery scans. Defaults to the current directory.
func WithRoot(root string) Option {
	return func(d *Discovery) {
		if root != "" {
			d.root = root
		}
	}
}

// WithIgnorePatterns adds doublestar glob patterns, matched against paths
// relative to the root, that exclude files from discovery scans. Explicitly
// named files are never ignored.
func WithIgnorePatterns(patterns []string) Option {
	return func(d *Discovery) {
		d.ignores = append(d.ignores, patterns...)
	}
}

// New creates a Discovery.
func New(opts ...Option) *Discovery {
	d := &Discovery{root: "."}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Collect locates skill files and reads them into documents. With no paths it
// scans the root; otherwise each path is expanded in argument order: a
// directory containing a skill file yields that file, any other directory is
// scanned recursively, and a file is accepted when named SKILL.md in any
// case.
//
// Unreadable and unresolvable paths are reported in the returned aggregate
// error without aborting the rest of the batch; the documents that did load
// are always returned.
func (d *Discovery) Collect(ctx context.Context, paths []string) ([]skill.Document, error) {
	var (
		files []string
		merr  *multierror.Error
	)
	if len(paths) == 0 {
		files = d.scan(ctx, d.root, &merr)
	} else {
		files = d.resolveExplicit(ctx, paths, &merr)
	}

	docs := make([]skill.Document, 0, len(files))
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "reading %s", DisplayPath(d.root, path)))
			continue
		}
		dir := filepath.Dir(path)
		docs = append(docs, skill.Document{
			DirName: filepath.Base(dir),
			Dir:     dir,
			Path:    path,
			Raw:     raw,
		})
	}
	logger.G(ctx).WithField("count", len(docs)).Debug("collected skill documents")
	return docs, merr.ErrorOrNil()
}

// scan discovers skill files under dir, one per directory, sorted by
// directory path.
func (d *Discovery) scan(ctx context.Context, dir string, merr **multierror.Error) []string {
	byDir := d.gitIndex(ctx, dir)
	if len(byDir) == 0 {
		byDir = d.walkTree(ctx, dir, merr)
	}

	dirs := make([]string, 0, len(byDir))
	for skillDir := range byDir {
		dirs = append(dirs, skillDir)
	}
	sort.Strings(dirs)

	files := make([]string, 0, len(dirs))
	for _, skillDir := range dirs {
		files = append(files, byDir[skillDir])
	}
	return files
}

// gitIndex lists tracked and untracked-but-not-ignored skill files via git.
// Returns nil when git is unavailable or dir is not inside a work tree.
func (d *Discovery) gitIndex(ctx context.Context, dir string) map[string]string {
	var listed []string
	for _, extra := range [][]string{nil, {"--others", "--exclude-standard"}} {
		out, err := gitLsFiles(ctx, dir, extra...)
		if err != nil {
			logger.G(ctx).WithError(err).Debug("git ls-files unavailable, falling back to tree walk")
			return nil
		}
		listed = append(listed, out...)
	}

	byDir := make(map[string]string)
	for _, pass := range []string{skill.CanonicalFileName, skill.LowercaseFileName} {
		for _, listedRel := range listed {
			if filepath.Base(filepath.FromSlash(listedRel)) != pass {
				continue
			}
			path := filepath.Join(dir, filepath.FromSlash(listedRel))
			rel, err := filepath.Rel(d.root, path)
			if err != nil {
				rel = path
			}
			if d.ignored(rel) {
				continue
			}
			if _, ok := byDir[filepath.Dir(path)]; !ok {
				byDir[filepath.Dir(path)] = path
			}
		}
	}
	return byDir
}

// walkTree discovers skill files by walking dir, skipping .git and
// node_modules. Walk failures are recorded without stopping the walk.
func (d *Discovery) walkTree(ctx context.Context, dir string, merr **multierror.Error) map[string]string {
	byDir := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			*merr = multierror.Append(*merr, errors.Wrapf(err, "walking %s", DisplayPath(d.root, path)))
			return nil
		}
		rel, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			rel = path
		}
		if entry.IsDir() {
			if skippedDirs[entry.Name()] || (path != dir && d.ignored(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.ignored(rel) {
			return nil
		}
		switch entry.Name() {
		case skill.CanonicalFileName:
			byDir[filepath.Dir(path)] = path
		case skill.LowercaseFileName:
			if _, ok := byDir[filepath.Dir(path)]; !ok {
				byDir[filepath.Dir(path)] = path
			}
		}
		return nil
	})
	if err != nil {
		*merr = multierror.Append(*merr, errors.Wrapf(err, "walking %s", dir))
	}
	return byDir
}

// resolveExplicit expands user-supplied paths into skill file paths,
// preserving argument order and dropping duplicates.
func (d *Discovery) resolveExplicit(ctx context.Context, paths []string, merr **multierror.Error) []string {
	var (
		files []string
		seen  = make(map[string]bool)
	)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range paths {
		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(d.root, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			*merr = multierror.Append(*merr, errors.Wrapf(err, "resolving %s", arg))
			continue
		}
		if !info.IsDir() {
			if strings.EqualFold(filepath.Base(path), skill.CanonicalFileName) {
				add(path)
			} else {
				*merr = multierror.Append(*merr, errors.Errorf("%s is not a %s file", arg, skill.CanonicalFileName))
			}
			continue
		}
		if file := findSkillFile(path); file != "" {
			add(file)
			continue
		}
		for _, file := range d.scan(ctx, path, merr) {
			add(file)
		}
	}
	return files
}

// findSkillFile returns the skill file directly inside dir, preferring the
// canonical name, or "" when dir has none.
func findSkillFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names[entry.Name()] = true
		}
	}
	for _, name := range []string{skill.CanonicalFileName, skill.LowercaseFileName} {
		if names[name] {
			return filepath.Join(dir, name)
		}
	}
	return ""
}

// ignored reports whether the root-relative path matches any ignore pattern.
func (d *Discovery) ignored(rel string) bool {
	if len(d.ignores) == 0 {
		return false
	}
	slashed := filepath.ToSlash(rel)
	for _, pattern := range d.ignores {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

func gitLsFiles(ctx context.Context, dir string, extra ...string) ([]string, error) {
	args := append([]string{"-C", dir, "ls-files", "-z"}, extra...)
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return nil, errors.Wrap(err, "running git ls-files")
	}
	var files []string
	for _, rel := range strings.Split(string(out), "\x00") {
		if rel != "" {
			files = append(files, rel)
		}
	}
	return files, nil
}

// RepoRoot resolves the enclosing git work tree root, falling back to the
// current directory outside a repository.
func RepoRoot(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		if root := strings.TrimSpace(string(out)); root != "" {
			return root
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// DisplayPath renders path relative to root for reporting, falling back to
// the path itself.
func DisplayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
