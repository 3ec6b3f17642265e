package validation

import "golang.org/x/text/unicode/norm"

// Reconcile reports whether a declared skill name and a directory name
// identify the same skill. Both sides are normalized under Unicode NFKC
// before a byte-wise comparison, so composed and decomposed encodings of
// visually identical text compare equal. The comparison is case-sensitive;
// case-insensitive storage is handled by the Validator option, not here.
func Reconcile(name, dirName string) bool {
	return norm.NFKC.String(name) == norm.NFKC.String(dirName)
}
