package skill

import "fmt"

// IssueKind classifies a validation issue so reports and tests can match on
// the rule that fired rather than on message text.
type IssueKind string

const (
	KindFrontmatterMissing IssueKind = "frontmatter-missing"
	KindFieldMissing       IssueKind = "field-missing"
	KindFieldEmpty         IssueKind = "field-empty"
	KindInvalidType        IssueKind = "invalid-type"
	KindTooLong            IssueKind = "too-long"
	KindNameCase           IssueKind = "name-case"
	KindNameHyphen         IssueKind = "name-hyphen"
	KindNameChars          IssueKind = "name-chars"
	KindNameMismatch       IssueKind = "name-mismatch"
	KindToolSpec           IssueKind = "tool-spec"
	KindUnknownField       IssueKind = "unknown-field"
	KindFileName           IssueKind = "file-name"
	KindRenameConflict     IssueKind = "rename-conflict"
)

// Issue is a single rule violation on a document. Field is empty for
// document-level issues such as missing frontmatter or a bad filename.
type Issue struct {
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Kind    IssueKind `json:"kind"`
}

// NewIssue builds an issue bound to a field.
func NewIssue(kind IssueKind, field, format string, args ...any) Issue {
	return Issue{Field: field, Message: fmt.Sprintf(format, args...), Kind: kind}
}

// NewDocIssue builds a document-level issue with no field.
func NewDocIssue(kind IssueKind, format string, args ...any) Issue {
	return Issue{Message: fmt.Sprintf(format, args...), Kind: kind}
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// HasKind reports whether any issue in the list has the given kind.
func HasKind(issues []Issue, kind IssueKind) bool {
	for _, is := range issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

// HasFieldKind reports whether any issue in the list targets the given field
// with one of the given kinds.
func HasFieldKind(issues []Issue, field string, kinds ...IssueKind) bool {
	for _, is := range issues {
		if is.Field != field {
			continue
		}
		for _, k := range kinds {
			if is.Kind == k {
				return true
			}
		}
	}
	return false
}
