// Package lint orchestrates checking and fixing batches of skill documents.
//
// Documents are processed on a bounded worker pool; results land in a slice
// indexed by input position so report order always matches discovery order.
// A batch never aborts on a bad document: parse problems become issues,
// IO failures are recorded against the document that hit them.
package lint

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"

	"github.com/aymanbagabas/go-udiff"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/skillint/pkg/fixer"
	"github.com/jingkaihe/skillint/pkg/frontmatter"
	"github.com/jingkaihe/skillint/pkg/fsio"
	"github.com/jingkaihe/skillint/pkg/logger"
	"github.com/jingkaihe/skillint/pkg/skill"
	"github.com/jingkaihe/skillint/pkg/validation"
)

// Writer applies planned file changes.
type Writer interface {
	WriteAtomic(path string, content []byte) error
	Rename(oldPath, newPath string) error
}

// Runner runs the per-document pipeline over a batch.
type Runner struct {
	workers   int
	writer    Writer
	lister    fixer.DirLister
	caseProbe func(dir string) bool

	planner     *fixer.Planner
	strict      *validation.Validator
	caseFolding *validation.Validator
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers caps concurrent document processing. Values below one are
// ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithWriter replaces the file writer, for dry runs against fakes in tests.
func WithWriter(w Writer) Option {
	return func(r *Runner) { r.writer = w }
}

// WithDirLister replaces the directory lister consulted for rename decisions.
func WithDirLister(l fixer.DirLister) Option {
	return func(r *Runner) { r.lister = l }
}

// WithCaseProbe replaces the probe deciding whether a document's directory
// lives on case-insensitive storage.
func WithCaseProbe(probe func(dir string) bool) Option {
	return func(r *Runner) { r.caseProbe = probe }
}

// NewRunner creates a Runner backed by the real filesystem.
func NewRunner(opts ...Option) *Runner {
	fs := fsio.FS{}
	r := &Runner{
		workers:   runtime.GOMAXPROCS(0),
		writer:    fs,
		lister:    fs,
		caseProbe: fsio.CaseInsensitiveDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.planner = fixer.NewPlanner(r.lister)
	r.strict = validation.New()
	r.caseFolding = validation.New(validation.WithCaseInsensitiveDir(true))
	return r
}

func (r *Runner) validatorFor(dir string) *validation.Validator {
	if r.caseProbe != nil && r.caseProbe(dir) {
		return r.caseFolding
	}
	return r.strict
}

// DocResult couples a document with the issues found on it.
type DocResult struct {
	Doc    skill.Document
	Issues []skill.Issue
}

// CheckReport is the aggregate outcome of a check batch.
type CheckReport struct {
	Results []DocResult
}

// OK reports overall success: at least one document examined and none with
// issues.
func (r *CheckReport) OK() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if len(res.Issues) > 0 {
			return false
		}
	}
	return true
}

// Flagged counts documents with at least one issue.
func (r *CheckReport) Flagged() int {
	n := 0
	for _, res := range r.Results {
		if len(res.Issues) > 0 {
			n++
		}
	}
	return n
}

// Check validates every document and accumulates all issues per document.
func (r *Runner) Check(ctx context.Context, docs []skill.Document) (*CheckReport, error) {
	results := make([]DocResult, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.checkDoc(ctx, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &CheckReport{Results: results}, nil
}

func (r *Runner) checkDoc(ctx context.Context, doc skill.Document) DocResult {
	fm, _ := frontmatter.Parse(doc.Raw)
	issues := r.validatorFor(doc.Dir).ValidateDocument(doc, fm)
	logger.G(ctx).WithField("path", doc.Path).WithField("issues", len(issues)).Debug("checked document")
	return DocResult{Doc: doc, Issues: issues}
}

// FixOptions controls a fix batch.
type FixOptions struct {
	// DryRun computes every plan and outcome without touching the tree.
	DryRun bool
	// Diff renders a unified diff for each document whose content changes.
	Diff bool
}

// FixOutcome describes what happened, or would happen, to one document.
type FixOutcome struct {
	Doc  skill.Document
	Plan fixer.FixResult
	// Diff is the unified diff of the content change, when requested.
	Diff string
	// Remaining holds the issues the plan does not resolve: content rules the
	// fixer only reports, plus a conflict entry when the rename was refused.
	Remaining []skill.Issue
	// Err records IO failures applying the plan; the rest of the batch
	// proceeds regardless.
	Err error
}

// FixReport is the aggregate outcome of a fix batch.
type FixReport struct {
	Results []FixOutcome
}

// OK reports overall success: at least one document, no remaining issues, no
// IO failures.
func (r *FixReport) OK() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if res.Err != nil || len(res.Remaining) > 0 {
			return false
		}
	}
	return true
}

// Changed counts documents whose plan alters content or path.
func (r *FixReport) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Plan.Changed {
			n++
		}
	}
	return n
}

// Conflicts counts documents whose rename was refused.
func (r *FixReport) Conflicts() int {
	n := 0
	for _, res := range r.Results {
		if res.Plan.Conflict {
			n++
		}
	}
	return n
}

// Fix plans and, unless opts.DryRun, applies repairs to every document.
// Dry-run computes the identical plans and remaining issues without writing.
func (r *Runner) Fix(ctx context.Context, docs []skill.Document, opts FixOptions) (*FixReport, error) {
	results := make([]FixOutcome, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.fixDoc(ctx, doc, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &FixReport{Results: results}, nil
}

func (r *Runner) fixDoc(ctx context.Context, doc skill.Document, opts FixOptions) FixOutcome {
	fm, body := frontmatter.Parse(doc.Raw)
	v := r.validatorFor(doc.Dir)
	issues := v.ValidateDocument(doc, fm)

	plan := r.planner.Plan(doc, fm, body, issues)
	out := FixOutcome{Doc: doc, Plan: plan}

	if plan.Conflict {
		out.Remaining = append(issues, skill.NewDocIssue(skill.KindRenameConflict,
			"%s already exists, refusing to rename %s", skill.CanonicalFileName, filepath.Base(doc.Path)))
		return out
	}

	if opts.Diff && !bytes.Equal(plan.Content, doc.Raw) {
		out.Diff = udiff.Unified(doc.Path, plan.TargetPath, string(doc.Raw), string(plan.Content))
	}

	if plan.Changed && !opts.DryRun {
		out.Err = r.apply(ctx, doc, plan)
	}

	// Re-check the planned result so unfixable violations stay visible.
	fixed := skill.Document{DirName: doc.DirName, Dir: doc.Dir, Path: plan.TargetPath, Raw: plan.Content}
	fixedFM, _ := frontmatter.Parse(plan.Content)
	out.Remaining = v.ValidateDocument(fixed, fixedFM)
	return out
}

// apply performs the rename before the content write so there is never more
// than one file for the document. A failed rename still writes the repaired
// content to the original path.
func (r *Runner) apply(ctx context.Context, doc skill.Document, plan fixer.FixResult) error {
	var merr *multierror.Error
	path := plan.Path
	if plan.Renamed {
		if err := r.writer.Rename(plan.Path, plan.TargetPath); err != nil {
			merr = multierror.Append(merr, err)
		} else {
			path = plan.TargetPath
			logger.G(ctx).WithField("from", plan.Path).WithField("to", plan.TargetPath).Debug("renamed skill file")
		}
	}
	if !bytes.Equal(plan.Content, doc.Raw) {
		if err := r.writer.WriteAtomic(path, plan.Content); err != nil {
			merr = multierror.Append(merr, err)
		} else {
			logger.G(ctx).WithField("path", path).Debug("wrote repaired document")
		}
	}
	return merr.ErrorOrNil()
}
