package ingest

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeIdentifier lowercases a name and replaces anything that is not
// a letter, digit, or underscore, matching what the upload path has
// always done to filenames and headers.
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(strings.ToLower(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			lastUnderscore = r == '_'
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "col"
	}
	// Identifiers must not start with a digit.
	if unicode.IsDigit(rune(s[0])) {
		s = "_" + s
	}
	return s
}

// normalizeHeader sanitizes column names and disambiguates duplicates by
// suffixing an incrementing index: a, a_2, a_3.
func normalizeHeader(fields []string) []string {
	seen := make(map[string]int, len(fields))
	out := make([]string, len(fields))
	for i, f := range fields {
		name := SanitizeIdentifier(f)
		if name == "col" && strings.TrimSpace(f) == "" {
			name = fmt.Sprintf("col_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
			seen[name]++
		}
		out[i] = name
	}
	return out
}

