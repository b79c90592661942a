package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bfv/dieselsync/config"
	"github.com/bfv/dieselsync/schema"
)

// Report summarises a run.
type Report struct {
	// Generated lists the tables code was generated for, in schema order.
	Generated []string
	// Ignored lists tables skipped because their options set ignore.
	Ignored []string
	// Removed lists output directories whose generated code was deleted.
	Removed []string
	// Written lists every file path created, modified or deleted.
	Written  []string
	Warnings []Warning
}

// Warning is a configuration inconsistency. It never aborts a run.
type Warning struct {
	Table  string
	Column string
	Msg    string
}

func (w Warning) String() string {
	if w.Column != "" {
		return fmt.Sprintf("table %q column %q: %s", w.Table, w.Column, w.Msg)
	}
	return fmt.Sprintf("table %q: %s", w.Table, w.Msg)
}

// CheckConfig reports configured autogenerated columns missing from their
// table and per-table options naming tables the schema does not declare.
func CheckConfig(cfg config.GenerationConfig, tables []schema.Table) []Warning {
	var warnings []Warning
	known := make(map[string]bool, len(tables))

	for i := range tables {
		t := &tables[i]
		known[t.Name] = true
		opts := cfg.Table(t.Name)
		if opts.IsIgnored() {
			continue
		}
		explicit := false
		if key, ok := cfg.TableKey(t.Name); ok {
			explicit = cfg.Tables[key].AutogeneratedColumns != nil
		}
		for _, col := range opts.Autogenerated() {
			if t.Column(col) != nil {
				continue
			}
			// Columns inherited from the defaults need not exist in every table.
			if !explicit {
				continue
			}
			warnings = append(warnings, Warning{Table: t.Name, Column: col, Msg: "autogenerated column is not declared in the table"})
		}
		for _, col := range opts.Autogenerated() {
			if t.IsPrimaryKey(col) {
				warnings = append(warnings, Warning{Table: t.Name, Column: col, Msg: "primary key column listed as autogenerated"})
			}
		}
	}

	for _, name := range cfg.TableNames() {
		if known[name] {
			continue
		}
		found := false
		for k := range known {
			if strings.EqualFold(k, name) {
				found = true
				break
			}
		}
		if !found {
			warnings = append(warnings, Warning{Table: name, Msg: "configured table is not declared in the schema"})
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Table < warnings[j].Table })
	return warnings
}
