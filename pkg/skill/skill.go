// Package skill defines the document model and schema constants shared by
// the frontmatter codec, the validator, and the fixer.
package skill

// CanonicalFileName is the only accepted spelling of a skill file name.
// Discovery also picks up the lowercase variant so that fix can rename it.
const (
	CanonicalFileName = "SKILL.md"
	LowercaseFileName = "skill.md"
)

// Schema field names.
const (
	FieldName          = "name"
	FieldDescription   = "description"
	FieldLicense       = "license"
	FieldCompatibility = "compatibility"
	FieldAllowedTools  = "allowed-tools"
	FieldMetadata      = "metadata"
)

// Field length limits, counted in Unicode codepoints rather than bytes so
// non-Latin scripts are not penalized for encoding width.
const (
	MaxNameLength          = 64
	MaxDescriptionLength   = 1024
	MaxCompatibilityLength = 500
)

// PlaceholderDescription is inserted by fix when no description can be
// derived from the document body.
const PlaceholderDescription = "Describe what this skill does and when to use it"

// AllowedFields lists every schema field in validation order. Anything else
// in the frontmatter is preserved but reported as unknown.
var AllowedFields = []string{
	FieldName,
	FieldDescription,
	FieldLicense,
	FieldCompatibility,
	FieldAllowedTools,
	FieldMetadata,
}

// IsAllowedField reports whether name is part of the schema.
func IsAllowedField(name string) bool {
	for _, f := range AllowedFields {
		if f == name {
			return true
		}
	}
	return false
}

// Document is one candidate skill file as produced by discovery. It is
// immutable once handed to the pipeline; a fix replaces the content
// wholesale rather than mutating Raw.
type Document struct {
	// DirName is the name of the enclosing directory, the identity the
	// name field is reconciled against.
	DirName string
	// Dir is the path of the enclosing directory.
	Dir string
	// Path is the file location, used for reporting and rename decisions.
	Path string
	// Raw is the original file content.
	Raw []byte
}
