package parser

import (
	"fmt"
	"strings"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Reference markers in model SQL are written {{ ref('name') }}. They are
// extracted with a small scanner rather than pattern matching over the
// SQL text, so quoting inside the SQL never produces phantom edges.

const (
	markerOpen  = "{{"
	markerClose = "}}"
)

// scanRefs extracts every reference marker from sql in order of
// appearance, with the byte offsets of the whole marker.
func scanRefs(sql string) ([]core.Ref, error) {
	var refs []core.Ref

	pos := 0
	for {
		open := strings.Index(sql[pos:], markerOpen)
		if open < 0 {
			return refs, nil
		}
		start := pos + open

		closeIdx := strings.Index(sql[start:], markerClose)
		if closeIdx < 0 {
			return nil, fmt.Errorf("reference marker at byte %d never closed", start)
		}
		end := start + closeIdx + len(markerClose)

		inner := sql[start+len(markerOpen) : end-len(markerClose)]
		name, err := parseRefCall(inner)
		if err != nil {
			return nil, fmt.Errorf("marker at byte %d: %w", start, err)
		}

		refs = append(refs, core.Ref{Name: name, Start: start, End: end})
		pos = end
	}
}

// parseRefCall validates the inside of a marker: ref('name') with single
// or double quotes, optional whitespace.
func parseRefCall(inner string) (string, error) {
	s := strings.TrimSpace(inner)
	if !strings.HasPrefix(s, "ref") {
		return "", fmt.Errorf("expected ref(...), got %q", s)
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "ref"))
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return "", fmt.Errorf("expected ref(...), got %q", strings.TrimSpace(inner))
	}
	arg := strings.TrimSpace(s[1 : len(s)-1])

	if len(arg) < 2 {
		return "", fmt.Errorf("ref argument must be a quoted name")
	}
	quote := arg[0]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("ref argument must be a quoted name")
	}
	if arg[len(arg)-1] != quote {
		return "", fmt.Errorf("mismatched quotes in ref argument")
	}
	name := arg[1 : len(arg)-1]
	if name == "" {
		return "", fmt.Errorf("ref argument is empty")
	}
	if strings.ContainsAny(name, "'\"") {
		return "", fmt.Errorf("ref argument contains a quote")
	}
	return name, nil
}

// Render splices resolved qualified names into sql in place of the
// markers. resolve maps the ref name as written to the physical
// qualified name.
func Render(sql string, refs []core.Ref, resolve func(string) string) string {
	if len(refs) == 0 {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql))
	last := 0
	for _, ref := range refs {
		b.WriteString(sql[last:ref.Start])
		b.WriteString(resolve(ref.Name))
		last = ref.End
	}
	b.WriteString(sql[last:])
	return b.String()
}
