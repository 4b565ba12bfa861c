package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// Frontmatter delimiters. The block sits inside a SQL comment so model
// files stay valid SQL for editors and linters.
const (
	frontmatterOpen  = "/*---"
	frontmatterClose = "---*/"
)

// frontmatter is the YAML header of a model file.
type frontmatter struct {
	Name         string            `yaml:"name"`
	Materialized string            `yaml:"materialized"`
	Description  string            `yaml:"description"`
	Tags         []string          `yaml:"tags"`
	Tests        []core.TestConfig `yaml:"tests"`
}

// splitFrontmatter separates the optional leading frontmatter block from
// the SQL body. A file without a block yields a zero frontmatter and the
// whole content as body.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter

	trimmed := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmed, frontmatterOpen) {
		return fm, content, nil
	}

	rest := trimmed[len(frontmatterOpen):]
	end := strings.Index(rest, frontmatterClose)
	if end < 0 {
		return fm, "", fmt.Errorf("frontmatter block opened with %q but never closed", frontmatterOpen)
	}

	block := rest[:end]
	body := rest[end+len(frontmatterClose):]

	dec := yaml.NewDecoder(strings.NewReader(block))
	// Unknown keys are almost always typos in test names; fail loudly.
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil && !errors.Is(err, io.EOF) {
		return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
	}

	return fm, strings.TrimLeft(body, "\r\n"), nil
}

// validMaterialization reports whether m is a known materialization.
func validMaterialization(m string) bool {
	return m == core.MaterializedView || m == core.MaterializedTable
}
