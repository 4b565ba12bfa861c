package core

// Materialization kinds for models.
const (
	MaterializedView  = "view"
	MaterializedTable = "table"
)

// Ref is a typed reference node extracted from a model's SQL body.
// References are written as explicit ref('name') markers, never guessed
// from free-text table names.
type Ref struct {
	// Name as written inside the marker, e.g. "raw.customers" or
	// "stg_orders".
	Name string
	// Start and End are byte offsets of the whole marker in the SQL body,
	// used to splice in the resolved table name at render time.
	Start int
	End   int
}

// Model is a named transformation unit parsed from a .sql model file.
type Model struct {
	// Name is the model name (filename without extension).
	Name string
	// Namespace is the schema the model materializes into, e.g. "staging".
	Namespace string
	// FilePath is the absolute path to the model file.
	FilePath string
	// Materialized is "view" or "table".
	Materialized string
	// Description from frontmatter.
	Description string
	// Tags from frontmatter.
	Tags []string
	// Tests attached to the model.
	Tests []TestConfig
	// SQL is the body with frontmatter stripped, ref markers intact.
	SQL string
	// Refs are the extracted reference nodes, in order of appearance.
	Refs []Ref
}

// Path returns the qualified model name, e.g. "staging.stg_orders".
func (m *Model) Path() string {
	if m.Namespace == "" {
		return m.Name
	}
	return m.Namespace + "." + m.Name
}

// TestConfig is the quality-test configuration from model frontmatter.
type TestConfig struct {
	NotNull        []string              `yaml:"not_null,omitempty"`
	Unique         []string              `yaml:"unique,omitempty"`
	AcceptedValues *AcceptedValuesConfig `yaml:"accepted_values,omitempty"`
	RowCount       *RowCountConfig       `yaml:"row_count,omitempty"`
}

// AcceptedValuesConfig restricts a column to a fixed value set.
type AcceptedValuesConfig struct {
	Column string   `yaml:"column"`
	Values []string `yaml:"values"`
}

// RowCountConfig bounds the materialized row count. Max of zero means
// unbounded above.
type RowCountConfig struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}
