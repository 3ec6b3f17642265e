package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillint/pkg/skill"
)

type fakeWriter struct {
	mu        sync.Mutex
	writes    map[string][]byte
	renames   [][2]string
	writeErr  error
	renameErr error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{writes: map[string][]byte{}}
}

func (w *fakeWriter) WriteAtomic(path string, content []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.writes[path] = append([]byte(nil), content...)
	return nil
}

func (w *fakeWriter) Rename(oldPath, newPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.renameErr != nil {
		return w.renameErr
	}
	w.renames = append(w.renames, [2]string{oldPath, newPath})
	return nil
}

func (w *fakeWriter) calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes) + len(w.renames)
}

type fakeLister struct {
	entries map[string][]string
}

func (l fakeLister) ReadDirNames(dir string) ([]string, error) {
	return l.entries[dir], nil
}

func doc(dirName, fileName, content string) skill.Document {
	dir := filepath.Join("skills", dirName)
	return skill.Document{
		DirName: dirName,
		Dir:     dir,
		Path:    filepath.Join(dir, fileName),
		Raw:     []byte(content),
	}
}

func conformant(name string) string {
	return fmt.Sprintf("---\nname: %q\ndescription: \"Does one thing well.\"\n---\n\n# %s\n", name, name)
}

func testRunner(t *testing.T, opts ...Option) (*Runner, *fakeWriter) {
	t.Helper()
	w := newFakeWriter()
	base := []Option{
		WithWriter(w),
		WithDirLister(fakeLister{}),
		WithCaseProbe(func(string) bool { return false }),
	}
	return NewRunner(append(base, opts...)...), w
}

func TestCheckAccumulatesPerDocument(t *testing.T) {
	r, _ := testRunner(t)
	docs := []skill.Document{
		doc("good-skill", "SKILL.md", conformant("good-skill")),
		doc("bad-skill", "SKILL.md", "---\nname: \"Mismatch\"\n---\nBody.\n"),
	}

	report, err := r.Check(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.Empty(t, report.Results[0].Issues)
	assert.NotEmpty(t, report.Results[1].Issues)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Flagged())
}

func TestCheckOrderMatchesInput(t *testing.T) {
	r, _ := testRunner(t, WithWorkers(4))
	var docs []skill.Document
	for i := 0; i < 24; i++ {
		name := fmt.Sprintf("skill-%02d", i)
		docs = append(docs, doc(name, "SKILL.md", conformant(name)))
	}

	report, err := r.Check(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, report.Results, len(docs))
	for i, res := range report.Results {
		assert.Equal(t, docs[i].Path, res.Doc.Path)
	}
	assert.True(t, report.OK())
}

func TestCheckZeroDocumentsIsFailure(t *testing.T) {
	r, _ := testRunner(t)
	report, err := r.Check(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, report.OK())

	fixReport, err := r.Fix(context.Background(), nil, FixOptions{})
	require.NoError(t, err)
	assert.False(t, fixReport.OK())
}

func TestCheckUsesCaseProbe(t *testing.T) {
	d := doc("My-Skill", "SKILL.md", conformant("my-skill"))

	strict, _ := testRunner(t)
	report, err := strict.Check(context.Background(), []skill.Document{d})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, skill.HasKind(report.Results[0].Issues, skill.KindNameMismatch))

	folding, _ := testRunner(t, WithCaseProbe(func(string) bool { return true }))
	report, err = folding.Check(context.Background(), []skill.Document{d})
	require.NoError(t, err)
	assert.Empty(t, report.Results[0].Issues)
}

func TestFixAppliesContentChange(t *testing.T) {
	r, w := testRunner(t)
	d := doc("right-name", "SKILL.md", "---\ndescription: does things\nname: wrong-name\n---\nBody.\n")

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	out := report.Results[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Plan.Changed)
	assert.Empty(t, out.Remaining)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Changed())

	written, ok := w.writes[d.Path]
	require.True(t, ok)
	assert.Equal(t, "---\ndescription: \"does things\"\nname: \"right-name\"\n---\n\nBody.\n", string(written))
	assert.Empty(t, w.renames)
}

func TestFixDryRunLeavesTreeUntouched(t *testing.T) {
	r, w := testRunner(t)
	d := doc("right-name", "SKILL.md", "---\nname: wrong-name\ndescription: ok\n---\nBody.\n")

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{DryRun: true, Diff: true})
	require.NoError(t, err)

	out := report.Results[0]
	assert.True(t, out.Plan.Changed)
	assert.Empty(t, out.Remaining)
	assert.Zero(t, w.calls())

	assert.Contains(t, out.Diff, "-name: wrong-name")
	assert.Contains(t, out.Diff, "+name: \"right-name\"")
}

func TestFixRenamesLowercaseFile(t *testing.T) {
	d := doc("good-skill", "skill.md", conformant("good-skill"))
	lister := fakeLister{entries: map[string][]string{
		d.Dir: {"skill.md"},
	}}
	r, w := testRunner(t, WithDirLister(lister))

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{})
	require.NoError(t, err)

	out := report.Results[0]
	require.NoError(t, out.Err)
	assert.True(t, out.Plan.Renamed)
	assert.Empty(t, out.Remaining)
	require.Len(t, w.renames, 1)
	assert.Equal(t, [2]string{d.Path, filepath.Join(d.Dir, "SKILL.md")}, w.renames[0])
	// Content was already canonical, so a rename is the only write.
	assert.Empty(t, w.writes)
}

func TestFixRenameConflictTouchesNothing(t *testing.T) {
	d := doc("good-skill", "skill.md", conformant("good-skill"))
	lister := fakeLister{entries: map[string][]string{
		d.Dir: {"SKILL.md", "skill.md"},
	}}
	r, w := testRunner(t, WithDirLister(lister))

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{})
	require.NoError(t, err)

	out := report.Results[0]
	assert.True(t, out.Plan.Conflict)
	assert.False(t, out.Plan.Changed)
	assert.Zero(t, w.calls())
	assert.True(t, skill.HasKind(out.Remaining, skill.KindRenameConflict))
	assert.True(t, skill.HasKind(out.Remaining, skill.KindFileName))
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Conflicts())
}

func TestFixReportsRemainingContentIssues(t *testing.T) {
	r, w := testRunner(t)
	d := doc("-bad", "SKILL.md", "---\nname: \"-bad\"\ndescription: \"ok\"\n---\n\nBody.\n")

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{})
	require.NoError(t, err)

	out := report.Results[0]
	assert.False(t, out.Plan.Changed)
	assert.Zero(t, w.calls())
	assert.True(t, skill.HasKind(out.Remaining, skill.KindNameHyphen))
	assert.False(t, report.OK())
}

func TestFixWriteFailureDoesNotAbortBatch(t *testing.T) {
	w := newFakeWriter()
	w.writeErr = errors.New("disk full")
	r := NewRunner(
		WithWriter(w),
		WithDirLister(fakeLister{}),
		WithCaseProbe(func(string) bool { return false }),
	)
	docs := []skill.Document{
		doc("fix-me", "SKILL.md", "---\nname: fix-me\ndescription: ok\n---\nBody.\n"),
		doc("good-skill", "SKILL.md", conformant("good-skill")),
	}

	report, err := r.Fix(context.Background(), docs, FixOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	require.Error(t, report.Results[0].Err)
	assert.Contains(t, report.Results[0].Err.Error(), "disk full")
	assert.NoError(t, report.Results[1].Err)
	assert.False(t, report.OK())
}

func TestFixMissingFrontmatterSynthesis(t *testing.T) {
	r, w := testRunner(t)
	d := doc("bad-skill", "SKILL.md", "# Bad Skill\n\nThis skill is missing frontmatter.\n")

	report, err := r.Fix(context.Background(), []skill.Document{d}, FixOptions{})
	require.NoError(t, err)

	out := report.Results[0]
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"name", "description"}, out.Plan.FilledFields)
	assert.Empty(t, out.Remaining)

	written := string(w.writes[d.Path])
	assert.True(t, strings.HasPrefix(written, "---\nname: \"bad-skill\"\n"))
	assert.Contains(t, written, "# Bad Skill")
}
