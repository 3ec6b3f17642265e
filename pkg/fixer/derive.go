package fixer

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"

	"github.com/jingkaihe/skillint/pkg/skill"
)

var markdown = goldmark.New()

// DeriveName converts a directory name into a schema-valid skill name:
// NFKC-normalized, lowercased, runs of invalid characters collapsed to a
// single hyphen, leading and trailing hyphens trimmed.
func DeriveName(dirName string) string {
	normalized := strings.ToLower(norm.NFKC.String(strings.TrimSpace(dirName)))

	var b strings.Builder
	b.Grow(len(normalized))
	pendingHyphen := false
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// DeriveDescription extracts a usable description from the Markdown body:
// the first line of the first block that is neither a heading nor a code
// block, falling back to the first heading's text, then to the placeholder
// template.
func DeriveDescription(body string) string {
	source := []byte(body)
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	var firstHeading ast.Node
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.Kind() {
		case ast.KindHeading:
			if firstHeading == nil {
				firstHeading = n
			}
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			// code is never a description
		default:
			if line := blockFirstLine(n, source); line != "" {
				return line
			}
		}
	}

	if firstHeading != nil {
		if title := nodeText(firstHeading, source); title != "" {
			return title
		}
	}
	return skill.PlaceholderDescription
}

// blockFirstLine returns the first source line of a block node, descending
// into containers such as lists and block quotes that carry no lines of
// their own.
func blockFirstLine(n ast.Node, source []byte) string {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		seg := lines.At(0)
		return strings.TrimSpace(string(seg.Value(source)))
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if line := blockFirstLine(child, source); line != "" {
			return line
		}
	}
	return ""
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
