// Package parser loads model definitions from a models directory. Each
// model is a .sql file with optional YAML frontmatter; the directory a
// file sits in becomes the model's namespace (target schema).
package parser

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/architadhande/queryverse-data-platform/pkg/core"
)

// DefaultNamespace receives models defined at the top of the models
// directory, outside any subdirectory.
const DefaultNamespace = "staging"

// Parser loads and parses model files.
type Parser struct {
	logger *slog.Logger
}

// New creates a parser. A nil logger discards.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{logger: logger}
}

// LoadDir walks dir for .sql files, one model per file, sorted by
// qualified name. Two files claiming the same qualified name is a
// DuplicateModelError.
func (p *Parser) LoadDir(dir string) ([]*core.Model, error) {
	var models []*core.Model
	byPath := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".sql") {
			return nil
		}

		model, err := p.LoadFile(dir, path)
		if err != nil {
			return err
		}

		if prev, dup := byPath[model.Path()]; dup {
			p.logger.Error("duplicate model name", "name", model.Path(), "first", prev, "second", path)
			return &core.DuplicateModelError{Path: model.Path()}
		}
		byPath[model.Path()] = path
		models = append(models, model)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortModels(models)
	p.logger.Debug("models loaded", "dir", dir, "count", len(models))
	return models, nil
}

// LoadFile parses a single model file. The namespace is the first path
// element under root, or DefaultNamespace for files directly in root.
func (p *Parser) LoadFile(root, path string) (*core.Model, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	refs, err := scanRefs(body)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	name := fm.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	materialized := fm.Materialized
	if materialized == "" {
		materialized = core.MaterializedView
	}
	if !validMaterialization(materialized) {
		return nil, fmt.Errorf("model %s: unknown materialization %q", path, materialized)
	}

	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("model %s: empty SQL body", path)
	}

	return &core.Model{
		Name:         name,
		Namespace:    namespaceFor(root, path),
		FilePath:     path,
		Materialized: materialized,
		Description:  fm.Description,
		Tags:         fm.Tags,
		Tests:        fm.Tests,
		SQL:          body,
		Refs:         refs,
	}, nil
}

// namespaceFor derives the target schema from the file's position under
// root.
func namespaceFor(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return DefaultNamespace
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return DefaultNamespace
	}
	return parts[0]
}

func sortModels(models []*core.Model) {
	sort.Slice(models, func(i, j int) bool {
		return models[i].Path() < models[j].Path()
	})
}
