package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Parse extracts the leading frontmatter block from a document. It returns
// the parsed mapping and the body after the closing delimiter. Any malformed
// block (no opening line, unclosed block, invalid YAML, non-mapping top
// level, non-string key) yields a nil Frontmatter and the entire content as
// body. A leading UTF-8 BOM is stripped first.
func Parse(raw []byte) (*Frontmatter, string) {
	content := strings.TrimPrefix(string(raw), "\uFEFF")

	yamlText, body, ok := splitBlock(content)
	if !ok {
		return nil, content
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &root); err != nil {
		return nil, content
	}
	fm, ok := decodeDocument(&root)
	if !ok {
		return nil, content
	}
	return fm, body
}

// splitBlock separates the YAML text between the two delimiter lines from
// the body after the closing line. Delimiters must be whole lines, so a
// "---" inside a quoted value never closes the block early. A trailing
// carriage return is tolerated on either delimiter line.
func splitBlock(content string) (yamlText, body string, ok bool) {
	first, rest, hasMore := strings.Cut(content, "\n")
	if !hasMore || strings.TrimSuffix(first, "\r") != delimiter {
		return "", "", false
	}
	for start := 0; start <= len(rest); {
		end := len(rest)
		if i := strings.IndexByte(rest[start:], '\n'); i >= 0 {
			end = start + i
		}
		if strings.TrimSuffix(rest[start:end], "\r") == delimiter {
			return rest[:start], rest[min(end+1, len(rest)):], true
		}
		start = end + 1
	}
	return "", "", false
}

// decodeDocument turns the unmarshalled YAML document into a Frontmatter.
// An empty or explicit-null document is an empty mapping, which is still
// "present" frontmatter. Duplicate keys keep the first occurrence.
func decodeDocument(root *yaml.Node) (*Frontmatter, bool) {
	if root.Kind == 0 || len(root.Content) == 0 {
		return New(), true
	}
	top := resolveAlias(root.Content[0])
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return New(), true
	}
	if top.Kind != yaml.MappingNode {
		return nil, false
	}

	fm := New()
	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode := resolveAlias(top.Content[i])
		if keyNode.Kind != yaml.ScalarNode || keyNode.Tag != "!!str" {
			return nil, false
		}
		if fm.Has(keyNode.Value) {
			continue
		}
		fm.Set(keyNode.Value, decodeValue(top.Content[i+1]))
	}
	return fm, true
}

func decodeValue(n *yaml.Node) Value {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, scalarText(c))
		}
		return Value{Kind: ValueList, Items: items}
	case yaml.MappingNode:
		entries := make([]MapEntry, 0, len(n.Content)/2)
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := scalarText(n.Content[i])
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, MapEntry{Key: key, Value: scalarText(n.Content[i+1])})
		}
		return Value{Kind: ValueMapping, Entries: entries}
	default:
		return Scalar(scalarText(n))
	}
}

// scalarText renders a node as the string the schema treats it as: scalar
// literals keep their source text, null becomes the empty string, and a
// collection nested deeper than the schema models collapses to its compact
// YAML rendering.
func scalarText(n *yaml.Node) string {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case 0:
		return ""
	default:
		out, err := yaml.Marshal(n)
		if err != nil {
			return ""
		}
		return strings.TrimRight(string(out), "\n")
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
