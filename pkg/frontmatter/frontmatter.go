// Package frontmatter parses and serializes the delimited metadata block at
// the top of a skill document. Parsing is deliberately forgiving: any
// malformed block degrades to "absent frontmatter" so the caller can treat
// it as missing metadata instead of a hard failure. Serialization is strict:
// one canonical layout, a pure function of the mapping value.
package frontmatter

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Frontmatter is the ordered field mapping of a skill document. Field order
// survives parse, fix, and serialize so rewrites stay diff-minimal, and
// unknown fields pass through untouched.
type Frontmatter struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// New returns an empty frontmatter mapping. An empty mapping is distinct
// from an absent one: "empty metadata" parses, "no metadata" does not.
func New() *Frontmatter {
	return &Frontmatter{fields: orderedmap.New[string, Value]()}
}

// Set adds or replaces a field. New fields append; existing fields keep
// their position.
func (f *Frontmatter) Set(name string, v Value) {
	f.fields.Set(name, v)
}

// Get returns the value for a field and whether it is present.
func (f *Frontmatter) Get(name string) (Value, bool) {
	return f.fields.Get(name)
}

// Has reports whether the field is present.
func (f *Frontmatter) Has(name string) bool {
	_, ok := f.fields.Get(name)
	return ok
}

// Len returns the number of fields.
func (f *Frontmatter) Len() int {
	return f.fields.Len()
}

// Field is a name/value pair in document order.
type Field struct {
	Name  string
	Value Value
}

// Fields returns all fields in document order.
func (f *Frontmatter) Fields() []Field {
	out := make([]Field, 0, f.fields.Len())
	for pair := f.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Name: pair.Key, Value: pair.Value})
	}
	return out
}

// Keys returns the field names in document order.
func (f *Frontmatter) Keys() []string {
	out := make([]string, 0, f.fields.Len())
	for pair := f.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
