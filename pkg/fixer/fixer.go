// Package fixer computes repair plans for skill documents: synthesizing
// missing required fields, reformatting frontmatter into its canonical
// layout, and renaming mis-cased skill files. Format fixes are automatic;
// content-rule violations stay reported-only so the tool never rewrites
// semantic content a human is responsible for.
package fixer

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jingkaihe/skillint/pkg/frontmatter"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// DirLister lists the entry names of a directory. It is injected so rename
// conflict detection can be simulated for both case-sensitive and
// case-insensitive filesystems in tests.
type DirLister interface {
	ReadDirNames(dir string) ([]string, error)
}

// FixResult is the planned outcome for one document.
type FixResult struct {
	// Frontmatter is the normalized mapping the plan would write.
	Frontmatter *frontmatter.Frontmatter
	// Content is the full document the plan would write.
	Content []byte
	// Path is the original file location; TargetPath differs when the plan
	// includes a rename to the canonical filename.
	Path       string
	TargetPath string
	Renamed    bool
	// Conflict means the canonical filename already exists next to the
	// mis-cased one; the document is left entirely untouched.
	Conflict bool
	// FilledFields lists required fields the plan synthesized.
	FilledFields []string
	// Changed is true iff the serialized content or the path differs from
	// the original, never merely because normalization was attempted.
	Changed bool
}

// Planner computes fix plans.
type Planner struct {
	lister DirLister
}

// NewPlanner creates a Planner that consults lister for rename decisions.
func NewPlanner(lister DirLister) *Planner {
	return &Planner{lister: lister}
}

// Plan computes the repair for one parsed document. fm is nil when the
// document has no parseable frontmatter, in which case body is the entire
// content and a fresh block is synthesized above it. issues is the validator
// output for the document; it decides which required fields are replaced.
func (p *Planner) Plan(doc skill.Document, fm *frontmatter.Frontmatter, body string, issues []skill.Issue) FixResult {
	res := FixResult{Path: doc.Path, TargetPath: doc.Path, Frontmatter: fm, Content: doc.Raw}

	target, conflict := p.planRename(doc)
	if conflict {
		res.Conflict = true
		return res
	}
	res.TargetPath = target
	res.Renamed = target != doc.Path

	fixed := frontmatter.New()
	if fm == nil {
		fixed.Set(skill.FieldName, frontmatter.Scalar(DeriveName(doc.DirName)))
		fixed.Set(skill.FieldDescription, frontmatter.Scalar(DeriveDescription(body)))
		res.FilledFields = []string{skill.FieldName, skill.FieldDescription}
	} else {
		fixed, res.FilledFields = p.rebuild(doc, fm, body, issues)
	}

	res.Frontmatter = fixed
	res.Content = frontmatter.Compose(fixed, body)
	res.Changed = !bytes.Equal(res.Content, doc.Raw) || res.TargetPath != res.Path
	return res
}

// rebuild copies every field in document order, replacing only the required
// fields the validator flagged as missing, empty, non-string, or (for name)
// mismatched against the directory. A missing name leads the block; a
// missing description goes right after the name.
func (p *Planner) rebuild(doc skill.Document, fm *frontmatter.Frontmatter, body string, issues []skill.Issue) (*frontmatter.Frontmatter, []string) {
	needName := skill.HasFieldKind(issues, skill.FieldName,
		skill.KindFieldMissing, skill.KindFieldEmpty, skill.KindNameMismatch)
	needDescription := skill.HasFieldKind(issues, skill.FieldDescription,
		skill.KindFieldMissing, skill.KindFieldEmpty)

	var filled []string
	fixed := frontmatter.New()

	if !fm.Has(skill.FieldName) {
		fixed.Set(skill.FieldName, frontmatter.Scalar(DeriveName(doc.DirName)))
		filled = append(filled, skill.FieldName)
	}
	if !fm.Has(skill.FieldDescription) && fixed.Has(skill.FieldName) {
		fixed.Set(skill.FieldDescription, frontmatter.Scalar(DeriveDescription(body)))
		filled = append(filled, skill.FieldDescription)
	}

	for _, f := range fm.Fields() {
		switch {
		case f.Name == skill.FieldName && needName:
			fixed.Set(f.Name, frontmatter.Scalar(DeriveName(doc.DirName)))
			filled = append(filled, skill.FieldName)
		case f.Name == skill.FieldDescription && needDescription:
			fixed.Set(f.Name, frontmatter.Scalar(DeriveDescription(body)))
			filled = append(filled, skill.FieldDescription)
		default:
			fixed.Set(f.Name, f.Value)
		}
		if f.Name == skill.FieldName && !fm.Has(skill.FieldDescription) && !fixed.Has(skill.FieldDescription) {
			fixed.Set(skill.FieldDescription, frontmatter.Scalar(DeriveDescription(body)))
			filled = append(filled, skill.FieldDescription)
		}
	}
	return fixed, filled
}

// planRename decides the canonical target path. A conflict is reported only
// when the directory holds the canonical and the mis-cased name as two
// distinct entries; on case-insensitive storage a single entry under either
// spelling is safe to rename in place.
func (p *Planner) planRename(doc skill.Document) (target string, conflict bool) {
	base := filepath.Base(doc.Path)
	if base == skill.CanonicalFileName || !strings.EqualFold(base, skill.CanonicalFileName) {
		return doc.Path, false
	}

	canonical := filepath.Join(doc.Dir, skill.CanonicalFileName)
	if p.lister == nil {
		return canonical, false
	}
	names, err := p.lister.ReadDirNames(doc.Dir)
	if err != nil {
		// Siblings cannot be inspected; plan the rename and let apply
		// surface the IO failure against this document.
		return canonical, false
	}
	if slices.Contains(names, skill.CanonicalFileName) && slices.Contains(names, base) {
		return doc.Path, true
	}
	return canonical, false
}
