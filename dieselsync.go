// Package dieselsync generates Rust model code from a Diesel schema.rs and
// keeps an output directory of generated modules in sync with it.
package dieselsync

import (
	"github.com/bfv/dieselsync/codegen"
	"github.com/bfv/dieselsync/config"
	"github.com/bfv/dieselsync/markedfile"
	"github.com/bfv/dieselsync/reconcile"
)

// FileSignature marks generated files. A file containing it on a line of its
// own is owned by dieselsync and may be overwritten or deleted.
const FileSignature = markedfile.Signature

// GenerateCode parses schema text and returns the generated code of every
// table that is not ignored.
func GenerateCode(schemaText string, cfg config.GenerationConfig) ([]reconcile.GeneratedTable, error) {
	return newDriver(cfg).Generate(schemaText)
}

// GenerateFiles generates code for the schema at schemaPath into outDir and
// removes generated output of tables no longer in the schema.
func GenerateFiles(schemaPath, outDir string, cfg config.GenerationConfig) (*reconcile.Report, error) {
	return newDriver(cfg).RunFile(schemaPath, outDir)
}

func newDriver(cfg config.GenerationConfig) *reconcile.Driver {
	return reconcile.NewDriver(cfg, codegen.NewGenerator(cfg.ConnectionType))
}
