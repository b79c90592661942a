package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bfv/dieselsync/schema"
)

// NewParseCmd builds and returns the 'parse' cobra command.
func NewParseCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "parse <schema.rs>",
		Short: "Print the tables of a Diesel schema as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], outputFile, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	return cmd
}

// runParse is the entry point for the parse command.
func runParse(schemaPath, outputPath string, stdout io.Writer) error {
	log.Debug().Str("schema", schemaPath).Str("output", outputPath).Msg("parse started")

	tables, err := parseSchemaFile(schemaPath)
	if err != nil {
		return err
	}

	out := ParseOutput{Tables: make([]TableView, 0, len(tables))}
	for _, t := range tables {
		out.Tables = append(out.Tables, newTableView(t))
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling yaml: %w", err)
	}

	w := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file %q: %w", outputPath, err)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()
		w = bw
		log.Debug().Str("path", outputPath).Msg("writing to file")
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log.Debug().Int("tables", len(out.Tables)).Msg("parse complete")
	return nil
}

// parseSchemaFile reads and parses a schema.rs file.
func parseSchemaFile(path string) ([]schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	tables, err := schema.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("tables", len(tables)).Msg("schema parsed")
	return tables, nil
}
