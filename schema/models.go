package schema

// Table is one parsed table! declaration.
type Table struct {
	Name        string       `yaml:"name"`
	SQLName     string       `yaml:"sql_name,omitempty"`
	Schema      string       `yaml:"schema,omitempty"`
	Doc         string       `yaml:"doc,omitempty"`
	Uses        []string     `yaml:"uses,omitempty"`
	Columns     []Column     `yaml:"columns"`
	PrimaryKey  []string     `yaml:"primary_key"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys,omitempty"`

	// ExplicitKey is true when the primary key was declared in parentheses
	// after the table name rather than inferred from an "id" column.
	ExplicitKey bool `yaml:"explicit_key"`
}

// Column is a single column inside a table block, in declaration order.
type Column struct {
	Name      string `yaml:"name"`
	SQLName   string `yaml:"sql_name,omitempty"`
	Doc       string `yaml:"doc,omitempty"`
	Type      Type   `yaml:"type"`
	Nullable  bool   `yaml:"nullable"`
	MaxLength int    `yaml:"max_length,omitempty"`
}

// ForeignKey comes from a joinable!(child -> parent (column)) declaration.
type ForeignKey struct {
	Column     string `yaml:"column"`
	References string `yaml:"references"`
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// IsPrimaryKey reports whether the named column is part of the primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// PrimaryKeyColumns returns the key columns in key order.
func (t *Table) PrimaryKeyColumns() []Column {
	cols := make([]Column, 0, len(t.PrimaryKey))
	for _, pk := range t.PrimaryKey {
		if c := t.Column(pk); c != nil {
			cols = append(cols, *c)
		}
	}
	return cols
}
