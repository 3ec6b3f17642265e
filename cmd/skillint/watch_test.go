package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfigDefaults(t *testing.T) {
	config := NewWatchConfig()

	assert.Equal(t, []string{".git", "node_modules"}, config.IgnoreDirs)
	assert.Equal(t, 500, config.DebounceTime)
}

func TestWatchConfigValidate(t *testing.T) {
	config := NewWatchConfig()
	assert.NoError(t, config.Validate())

	config.DebounceTime = -1
	assert.Error(t, config.Validate(), "negative debounce time should be rejected")
}

func TestWatchRoots(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "skills", "writing"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	roots, err := watchRoots(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, roots, "no arguments watches the root")

	roots, err = watchRoots(root, []string{"skills"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "skills")}, roots)

	abs := filepath.Join(root, "skills", "writing")
	roots, err = watchRoots(root, []string{abs})
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, roots, "absolute paths pass through")

	_, err = watchRoots(root, []string{"missing"})
	assert.Error(t, err)

	_, err = watchRoots(root, []string{"README.md"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestDebounceCollapsesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan FileEvent)
	output := make(chan FileEvent)
	go debounceFileEvents(ctx, input, output, 20*time.Millisecond)

	path := filepath.Join("skills", "writing", "SKILL.md")
	for i := 0; i < 5; i++ {
		input <- FileEvent{Path: path, Op: fsnotify.Write, Time: time.Now()}
	}

	select {
	case event := <-output:
		assert.Equal(t, path, event.Path)
	case <-time.After(time.Second):
		t.Fatal("debounced event never arrived")
	}

	select {
	case event := <-output:
		t.Fatalf("burst produced a second event for %s", event.Path)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebounceKeepsPathsIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan FileEvent)
	output := make(chan FileEvent)
	go debounceFileEvents(ctx, input, output, 20*time.Millisecond)

	a := filepath.Join("skills", "a", "SKILL.md")
	b := filepath.Join("skills", "b", "SKILL.md")
	input <- FileEvent{Path: a, Op: fsnotify.Write, Time: time.Now()}
	input <- FileEvent{Path: b, Op: fsnotify.Create, Time: time.Now()}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-output:
			got[event.Path] = true
		case <-time.After(time.Second):
			t.Fatal("missing debounced event")
		}
	}
	assert.True(t, got[a])
	assert.True(t, got[b])
}

func TestSkipPath(t *testing.T) {
	ignore := []string{".git", "node_modules"}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"git directory itself", ".git", true},
		{"inside git directory", filepath.Join("repo", ".git", "hooks"), true},
		{"node_modules subtree", filepath.Join("web", "node_modules", "pkg", "SKILL.md"), true},
		{"regular skill path", filepath.Join("skills", "writing", "SKILL.md"), false},
		{"name containing ignored substring", filepath.Join("skills", "gitops", "SKILL.md"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skipPath(tt.path, ignore))
		})
	}
}
