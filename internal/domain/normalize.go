package domain

import "strings"

// NormalizeAlias lowercases and collapses whitespace. It is the single
// normalization used on both stored alias text and incoming queries; raw
// strings are never compared.
func NormalizeAlias(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
