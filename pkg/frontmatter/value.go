package frontmatter

// ValueKind discriminates the closed set of shapes a field value can take.
type ValueKind int

const (
	ValueScalar ValueKind = iota
	ValueList
	ValueMapping
)

func (k ValueKind) String() string {
	switch k {
	case ValueList:
		return "list"
	case ValueMapping:
		return "mapping"
	default:
		return "scalar"
	}
}

// MapEntry is one key/value pair of a nested mapping value, in document order.
type MapEntry struct {
	Key   string
	Value string
}

// Value is a frontmatter field value: a scalar string, an ordered list of
// strings, or a one-level nested mapping of strings. All leaves are strings.
// Scalar literals keep their source text ("5", "true"), null decodes to the
// empty string, and anything nested deeper than the schema allows collapses
// to its compact YAML rendering.
type Value struct {
	Kind    ValueKind
	Str     string
	Items   []string
	Entries []MapEntry
}

// Scalar returns a scalar string value.
func Scalar(s string) Value {
	return Value{Kind: ValueScalar, Str: s}
}

// List returns an ordered list value.
func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: ValueList, Items: items}
}

// Mapping returns a nested mapping value preserving entry order.
func Mapping(entries ...MapEntry) Value {
	if entries == nil {
		entries = []MapEntry{}
	}
	return Value{Kind: ValueMapping, Entries: entries}
}

// IsEmpty reports whether the value carries no content: a blank scalar, an
// empty list, or an empty mapping.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case ValueList:
		return len(v.Items) == 0
	case ValueMapping:
		return len(v.Entries) == 0
	default:
		return v.Str == ""
	}
}
