package reward

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName is the key used for per-shop name uniqueness: Unicode
// compatibility-normalized, case-folded, trimmed, inner whitespace collapsed.
func NormalizeName(name string) string {
	n := norm.NFKC.String(name)
	n = strings.Join(strings.Fields(n), " ")
	// Casers carry state, so one is built per call.
	return cases.Fold().String(n)
}
