package frontmatter

import (
	"fmt"
	"strings"
)

// Serialize renders the frontmatter as a canonical delimited block including
// both delimiter lines and a trailing newline. The output is a pure function
// of the mapping: structurally equal values serialize byte-identically, and
// the result always reparses to the same mapping.
func Serialize(fm *Frontmatter) string {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	for _, field := range fm.Fields() {
		writeField(&b, field.Name, field.Value)
	}
	b.WriteString(delimiter)
	b.WriteByte('\n')
	return b.String()
}

// Compose renders the canonical full document: the serialized block, one
// blank line, then the body with leading blank lines and trailing whitespace
// trimmed, ending in a single newline. An empty body yields the block alone.
func Compose(fm *Frontmatter, body string) []byte {
	block := Serialize(fm)
	trimmed := strings.TrimRight(strings.TrimLeft(body, "\r\n"), " \t\r\n")
	if trimmed == "" {
		return []byte(block)
	}
	return []byte(block + "\n" + trimmed + "\n")
}

func writeField(b *strings.Builder, name string, v Value) {
	key := formatKey(name)
	switch v.Kind {
	case ValueList:
		if len(v.Items) == 0 {
			fmt.Fprintf(b, "%s: []\n", key)
			return
		}
		fmt.Fprintf(b, "%s:\n", key)
		for _, item := range v.Items {
			fmt.Fprintf(b, "  - %s\n", quote(item))
		}
	case ValueMapping:
		if len(v.Entries) == 0 {
			fmt.Fprintf(b, "%s: {}\n", key)
			return
		}
		fmt.Fprintf(b, "%s:\n", key)
		for _, e := range v.Entries {
			fmt.Fprintf(b, "  %s: %s\n", formatKey(e.Key), quote(e.Value))
		}
	default:
		fmt.Fprintf(b, "%s: %s\n", key, quote(v.Str))
	}
}

// quote renders a scalar as a double-quoted YAML string with JSON-style
// escapes. Values are always quoted so types stay stable across reparse:
// "true" remains a string and never turns into a boolean.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			// YAML folds unescaped line breaks inside double-quoted
			// scalars, so the exotic ones must be escaped as well.
			if r < 0x20 || r == 0x85 || r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatKey leaves simple identifier keys bare and quotes everything else.
func formatKey(key string) string {
	if isSimpleKey(key) {
		return key
	}
	return quote(key)
}

func isSimpleKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
