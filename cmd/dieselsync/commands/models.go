package commands

import "github.com/bfv/dieselsync/schema"

// ParseOutput is the YAML document printed by the parse command.
type ParseOutput struct {
	Tables []TableView `yaml:"tables"`
}

// TableView is a flattened, human-oriented view of a parsed table.
type TableView struct {
	Name        string            `yaml:"name"`
	Schema      string            `yaml:"schema,omitempty"`
	Doc         string            `yaml:"doc,omitempty"`
	PrimaryKey  []string          `yaml:"primary_key"`
	Inferred    bool              `yaml:"primary_key_inferred,omitempty"`
	Columns     []ColumnView      `yaml:"columns"`
	ForeignKeys map[string]string `yaml:"foreign_keys,omitempty"`
}

// ColumnView is one column of a TableView.
type ColumnView struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Kind     string `yaml:"kind"`
	Nullable bool   `yaml:"nullable,omitempty"`
	SQLName  string `yaml:"sql_name,omitempty"`
}

func newTableView(t schema.Table) TableView {
	v := TableView{
		Name:       t.Name,
		Schema:     t.Schema,
		Doc:        t.Doc,
		PrimaryKey: t.PrimaryKey,
		Inferred:   !t.ExplicitKey,
	}
	for _, c := range t.Columns {
		v.Columns = append(v.Columns, ColumnView{
			Name:     c.Name,
			Type:     c.Type.Token,
			Kind:     c.Type.Unwrap().Kind.String(),
			Nullable: c.Nullable,
			SQLName:  c.SQLName,
		})
	}
	if len(t.ForeignKeys) > 0 {
		v.ForeignKeys = make(map[string]string, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			v.ForeignKeys[fk.Column] = fk.References
		}
	}
	return v
}
