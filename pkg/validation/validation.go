// Package validation applies the skill schema to parsed frontmatter. Every
// rule is evaluated independently and all issues accumulate, so one pass
// reports everything wrong with a document.
package validation

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jingkaihe/skillint/pkg/frontmatter"
	"github.com/jingkaihe/skillint/pkg/skill"
)

// Validator checks documents against the fixed skill schema.
type Validator struct {
	caseInsensitiveDir bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithCaseInsensitiveDir tolerates a case-only mismatch between the name
// field and the stored directory name. It is meant to be set from a probe of
// the underlying filesystem; the name field's own lowercase rule still
// applies.
func WithCaseInsensitiveDir(enabled bool) Option {
	return func(v *Validator) { v.caseInsensitiveDir = enabled }
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type ruleContext struct {
	doc       skill.Document
	validator *Validator
}

type fieldRule struct {
	field    string
	required bool
	check    func(rc ruleContext, val frontmatter.Value) []skill.Issue
}

// fieldRules is the schema as a static table, evaluated in order so issue
// order is deterministic.
var fieldRules = []fieldRule{
	{skill.FieldName, true, checkName},
	{skill.FieldDescription, true, checkDescription},
	{skill.FieldLicense, false, checkLicense},
	{skill.FieldCompatibility, false, checkCompatibility},
	{skill.FieldAllowedTools, false, checkAllowedTools},
	{skill.FieldMetadata, false, checkMetadata},
}

// ValidateDocument applies every schema rule to a parsed document and
// returns all violations. A nil frontmatter reports missing/invalid
// frontmatter plus the two required fields, so downstream reporting is
// uniform whether the cause was absence or individual missing fields.
func (v *Validator) ValidateDocument(doc skill.Document, fm *frontmatter.Frontmatter) []skill.Issue {
	var issues []skill.Issue

	if base := filepath.Base(doc.Path); base != skill.CanonicalFileName && strings.EqualFold(base, skill.CanonicalFileName) {
		issues = append(issues, skill.NewDocIssue(skill.KindFileName,
			"file must be named %s, found %s", skill.CanonicalFileName, base))
	}

	if fm == nil {
		return append(issues,
			skill.NewDocIssue(skill.KindFrontmatterMissing,
				"missing or invalid frontmatter: the file must start with a --- delimited YAML block"),
			skill.NewIssue(skill.KindFieldMissing, skill.FieldName, "required field is missing"),
			skill.NewIssue(skill.KindFieldMissing, skill.FieldDescription, "required field is missing"),
		)
	}

	if extra := unknownFields(fm); len(extra) > 0 {
		issues = append(issues, skill.NewDocIssue(skill.KindUnknownField,
			"unknown field(s): %s (allowed fields: %s)",
			strings.Join(extra, ", "), strings.Join(skill.AllowedFields, ", ")))
	}

	rc := ruleContext{doc: doc, validator: v}
	for _, rule := range fieldRules {
		val, ok := fm.Get(rule.field)
		if !ok {
			if rule.required {
				issues = append(issues, skill.NewIssue(skill.KindFieldMissing, rule.field, "required field is missing"))
			}
			continue
		}
		issues = append(issues, rule.check(rc, val)...)
	}
	return issues
}

func unknownFields(fm *frontmatter.Frontmatter) []string {
	var extra []string
	for _, key := range fm.Keys() {
		if !skill.IsAllowedField(key) {
			extra = append(extra, key)
		}
	}
	return extra
}

func checkName(rc ruleContext, val frontmatter.Value) []skill.Issue {
	if val.Kind != frontmatter.ValueScalar || strings.TrimSpace(val.Str) == "" {
		return []skill.Issue{skill.NewIssue(skill.KindFieldEmpty, skill.FieldName, "must be a non-empty string")}
	}

	var issues []skill.Issue
	normalized := norm.NFKC.String(strings.TrimSpace(val.Str))

	if n := utf8.RuneCountInString(normalized); n > skill.MaxNameLength {
		issues = append(issues, skill.NewIssue(skill.KindTooLong, skill.FieldName,
			"must be at most %d characters, found %d", skill.MaxNameLength, n))
	}
	if normalized != strings.ToLower(normalized) {
		issues = append(issues, skill.NewIssue(skill.KindNameCase, skill.FieldName,
			"must be lowercase, found %q", normalized))
	}
	if strings.HasPrefix(normalized, "-") {
		issues = append(issues, skill.NewIssue(skill.KindNameHyphen, skill.FieldName,
			"must not start with a hyphen"))
	}
	if strings.HasSuffix(normalized, "-") {
		issues = append(issues, skill.NewIssue(skill.KindNameHyphen, skill.FieldName,
			"must not end with a hyphen"))
	}
	if strings.Contains(normalized, "--") {
		issues = append(issues, skill.NewIssue(skill.KindNameHyphen, skill.FieldName,
			"must not contain consecutive hyphens"))
	}
	for _, r := range normalized {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' {
			issues = append(issues, skill.NewIssue(skill.KindNameChars, skill.FieldName,
				"may only contain letters, digits, and hyphens, found %q", normalized))
			break
		}
	}

	if rc.doc.DirName != "" && !rc.validator.namesMatch(normalized, rc.doc.DirName) {
		issues = append(issues, skill.NewIssue(skill.KindNameMismatch, skill.FieldName,
			"must match the directory name: name is %q, directory is %q", normalized, rc.doc.DirName))
	}
	return issues
}

func (v *Validator) namesMatch(name, dirName string) bool {
	if Reconcile(name, dirName) {
		return true
	}
	if v.caseInsensitiveDir {
		return strings.EqualFold(norm.NFKC.String(name), norm.NFKC.String(dirName))
	}
	return false
}

func checkDescription(_ ruleContext, val frontmatter.Value) []skill.Issue {
	if val.Kind != frontmatter.ValueScalar || strings.TrimSpace(val.Str) == "" {
		return []skill.Issue{skill.NewIssue(skill.KindFieldEmpty, skill.FieldDescription, "must be a non-empty string")}
	}
	if n := utf8.RuneCountInString(val.Str); n > skill.MaxDescriptionLength {
		return []skill.Issue{skill.NewIssue(skill.KindTooLong, skill.FieldDescription,
			"must be at most %d characters, found %d", skill.MaxDescriptionLength, n)}
	}
	return nil
}

func checkLicense(_ ruleContext, val frontmatter.Value) []skill.Issue {
	if val.Kind != frontmatter.ValueScalar {
		return []skill.Issue{skill.NewIssue(skill.KindInvalidType, skill.FieldLicense,
			"must be a string, found a %s", val.Kind)}
	}
	if strings.TrimSpace(val.Str) == "" {
		return []skill.Issue{skill.NewIssue(skill.KindFieldEmpty, skill.FieldLicense, "must not be empty if present")}
	}
	return nil
}

func checkCompatibility(_ ruleContext, val frontmatter.Value) []skill.Issue {
	if val.Kind != frontmatter.ValueScalar {
		return []skill.Issue{skill.NewIssue(skill.KindInvalidType, skill.FieldCompatibility,
			"must be a string, found a %s", val.Kind)}
	}
	if strings.TrimSpace(val.Str) == "" {
		return []skill.Issue{skill.NewIssue(skill.KindFieldEmpty, skill.FieldCompatibility, "must not be empty if present")}
	}
	if n := utf8.RuneCountInString(val.Str); n > skill.MaxCompatibilityLength {
		return []skill.Issue{skill.NewIssue(skill.KindTooLong, skill.FieldCompatibility,
			"must be at most %d characters, found %d", skill.MaxCompatibilityLength, n)}
	}
	return nil
}

func checkMetadata(_ ruleContext, val frontmatter.Value) []skill.Issue {
	// Leaf values are already stringified by the codec, so the only thing
	// left to enforce is the shape.
	if val.Kind != frontmatter.ValueMapping {
		return []skill.Issue{skill.NewIssue(skill.KindInvalidType, skill.FieldMetadata,
			"must be a mapping of keys to values, found a %s", val.Kind)}
	}
	return nil
}

func checkAllowedTools(_ ruleContext, val frontmatter.Value) []skill.Issue {
	var issues []skill.Issue
	switch val.Kind {
	case frontmatter.ValueScalar:
		tools := val.Str
		if strings.TrimSpace(tools) == "" {
			issues = append(issues, skill.NewIssue(skill.KindFieldEmpty, skill.FieldAllowedTools,
				"must not be empty if present"))
		}
		if strings.Contains(tools, ",") {
			issues = append(issues, skill.NewIssue(skill.KindToolSpec, skill.FieldAllowedTools,
				"tools must be space-delimited, not comma-delimited"))
		}
		for _, tool := range strings.Fields(tools) {
			if reason := checkToolSpec(tool); reason != "" {
				issues = append(issues, skill.NewIssue(skill.KindToolSpec, skill.FieldAllowedTools,
					"invalid tool spec %q: %s", tool, reason))
			}
		}
	case frontmatter.ValueList:
		for i, item := range val.Items {
			spec := strings.TrimSpace(item)
			if spec == "" {
				issues = append(issues, skill.NewIssue(skill.KindToolSpec, skill.FieldAllowedTools,
					"entry %d must be a non-empty tool spec", i))
				continue
			}
			if reason := checkToolSpec(spec); reason != "" {
				issues = append(issues, skill.NewIssue(skill.KindToolSpec, skill.FieldAllowedTools,
					"invalid tool spec %q: %s", spec, reason))
			}
		}
	default:
		issues = append(issues, skill.NewIssue(skill.KindInvalidType, skill.FieldAllowedTools,
			"must be a string or a list of strings"))
	}
	return issues
}

// checkToolSpec validates one tool specification: an identifier optionally
// followed by a parenthesized argument list. Returns the reason the spec is
// invalid, or an empty string.
func checkToolSpec(tool string) string {
	if strings.Count(tool, "(") != strings.Count(tool, ")") {
		return "unbalanced parentheses"
	}
	if idx := strings.IndexByte(tool, '('); idx >= 0 {
		if !strings.HasSuffix(tool, ")") {
			return "missing closing ')'"
		}
		if strings.TrimSpace(tool[:idx]) == "" {
			return "tool name cannot be empty"
		}
	}
	return ""
}
