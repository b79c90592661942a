package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bfv/dieselsync/schema"
)

// NewDiffCmd builds and returns the 'diff' cobra command.
func NewDiffCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "diff <old-schema.rs> <new-schema.rs>",
		Short: "Show table and column differences between two Diesel schemas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], outputFile, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	return cmd
}

// runDiff is the entry point for the diff command.
func runDiff(oldPath, newPath, outputPath string, stdout io.Writer) error {
	log.Debug().Str("old", oldPath).Str("new", newPath).Str("output", outputPath).Msg("diff started")

	oldTables, err := parseSchemaFile(oldPath)
	if err != nil {
		return err
	}
	newTables, err := parseSchemaFile(newPath)
	if err != nil {
		return err
	}

	rows := diffSchemas(oldTables, newTables)

	out := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No schema differences found.")
		return nil
	}

	printDiffTable(out, rows)
	log.Debug().Int("differences", len(rows)).Msg("diff complete")
	return nil
}

// diffRow holds one line of diff output.
type diffRow struct {
	construct string // TABLE, COLUMN, PRIMARY KEY
	name      string // e.g. "posts", "posts.title"
	oldValue  string
	newValue  string
}

const missing = "(not present)"

// diffSchemas compares tables by case-insensitive name, in old-schema order
// followed by tables only present in the new schema.
func diffSchemas(oldTables, newTables []schema.Table) []diffRow {
	newByKey := make(map[string]*schema.Table, len(newTables))
	for i := range newTables {
		newByKey[strings.ToLower(newTables[i].Name)] = &newTables[i]
	}

	var rows []diffRow
	seen := map[string]bool{}
	for i := range oldTables {
		ot := &oldTables[i]
		key := strings.ToLower(ot.Name)
		seen[key] = true
		nt, ok := newByKey[key]
		if !ok {
			rows = append(rows, diffRow{"TABLE", ot.Name, fmt.Sprintf("%d columns", len(ot.Columns)), missing})
			continue
		}
		rows = append(rows, diffTable(ot, nt)...)
	}

	for i := range newTables {
		nt := &newTables[i]
		if !seen[strings.ToLower(nt.Name)] {
			rows = append(rows, diffRow{"TABLE", nt.Name, missing, fmt.Sprintf("%d columns", len(nt.Columns))})
		}
	}
	return rows
}

func diffTable(ot, nt *schema.Table) []diffRow {
	var rows []diffRow

	oldKey := strings.Join(ot.PrimaryKey, ", ")
	newKey := strings.Join(nt.PrimaryKey, ", ")
	if oldKey != newKey {
		rows = append(rows, diffRow{"PRIMARY KEY", nt.Name, oldKey, newKey})
	}

	for _, oc := range ot.Columns {
		display := nt.Name + "." + oc.Name
		nc := nt.Column(oc.Name)
		if nc == nil {
			rows = append(rows, diffRow{"COLUMN", display, oc.Type.Token, missing})
			continue
		}
		if !oc.Type.Equal(nc.Type) {
			rows = append(rows, diffRow{"COLUMN", display, oc.Type.Token, nc.Type.Token})
		}
	}
	for _, nc := range nt.Columns {
		if ot.Column(nc.Name) == nil {
			rows = append(rows, diffRow{"COLUMN", nt.Name + "." + nc.Name, missing, nc.Type.Token})
		}
	}
	return rows
}

// printDiffTable renders the diff as a fixed-column table.
func printDiffTable(w io.Writer, rows []diffRow) {
	const (
		hConstruct = "CONSTRUCT"
		hName      = "NAME"
		hOld       = "OLD"
		hNew       = "NEW"
	)

	wConstruct := len(hConstruct)
	wName := len(hName)
	wOld := len(hOld)

	for _, r := range rows {
		wConstruct = max(wConstruct, len(r.construct))
		wName = max(wName, len(r.name))
		wOld = max(wOld, len(r.oldValue))
	}

	wConstruct += 2
	wName += 2
	wOld += 2

	fmtRow := func(c, n, o, nv string) {
		line := fmt.Sprintf("%-*s%-*s%-*s%s", wConstruct, c, wName, n, wOld, o, nv)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	fmtRow(hConstruct, hName, hOld, hNew)
	fmtRow(strings.Repeat("-", wConstruct-2), strings.Repeat("-", wName-2), strings.Repeat("-", wOld-2), strings.Repeat("-", len(hNew)))

	for _, r := range rows {
		fmtRow(r.construct, r.name, r.oldValue, r.newValue)
	}
}
