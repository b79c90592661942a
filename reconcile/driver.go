package reconcile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bfv/dieselsync/config"
	"github.com/bfv/dieselsync/markedfile"
	"github.com/bfv/dieselsync/schema"
)

// File stems inside the output tree.
const (
	GeneratedStem = "generated"
	ModStem       = "mod"
)

var errNotDir = errors.New("exists and is not a directory")

// Generator turns one table into the contents of its generated file.
type Generator interface {
	Generate(t *schema.Table, opts config.TableOptions) string
	FileExtension() string
}

// GeneratedTable is a table together with its resolved options and code.
type GeneratedTable struct {
	Table   schema.Table
	Options config.TableOptions
	Code    string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// Driver runs the parse, generate and synchronise pipeline. A Driver is not
// safe for concurrent runs against the same output directory.
type Driver struct {
	cfg config.GenerationConfig
	gen Generator
	log zerolog.Logger
}

// NewDriver creates a Driver. The global zerolog logger is used unless
// WithLogger is given.
func NewDriver(cfg config.GenerationConfig, gen Generator, opts ...Option) *Driver {
	d := &Driver{cfg: cfg, gen: gen, log: log.Logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type plan struct {
	tables   []GeneratedTable
	ignored  []string
	warnings []Warning
}

// Generate parses the schema and returns the generated code of every table
// that is not ignored, in schema order.
func (d *Driver) Generate(input string) ([]GeneratedTable, error) {
	p, err := d.plan(input)
	if err != nil {
		return nil, err
	}
	return p.tables, nil
}

func (d *Driver) plan(input string) (*plan, error) {
	tables, err := schema.Parse(input)
	if err != nil {
		return nil, err
	}
	d.log.Debug().Int("tables", len(tables)).Msg("schema parsed")

	p := &plan{warnings: CheckConfig(d.cfg, tables)}
	ignored := make(map[string]bool)
	for _, t := range tables {
		if d.cfg.Table(t.Name).IsIgnored() {
			ignored[t.Name] = true
			p.ignored = append(p.ignored, t.Name)
		}
	}

	for _, t := range tables {
		if ignored[t.Name] {
			continue
		}
		opts := d.cfg.Table(t.Name)

		// Associations to tables without generated models cannot compile.
		fks := make([]schema.ForeignKey, 0, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			if !ignored[fk.References] {
				fks = append(fks, fk)
			}
		}
		t.ForeignKeys = fks

		p.tables = append(p.tables, GeneratedTable{
			Table:   t,
			Options: opts,
			Code:    d.gen.Generate(&t, opts),
		})
	}
	return p, nil
}

// RunFile reads the schema at schemaPath and calls Run.
func (d *Driver) RunFile(schemaPath, outDir string) (*Report, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, markedfile.NewFilesystemError("read", schemaPath, err)
	}
	return d.Run(string(data), outDir)
}

// Run generates code for every table of the schema into outDir and removes
// generator-owned output of tables that are gone or ignored. Hand-written
// files and lines are left alone. The first error aborts the run.
func (d *Driver) Run(input, outDir string) (*Report, error) {
	p, err := d.plan(input)
	if err != nil {
		return nil, err
	}
	report := &Report{Ignored: p.ignored, Warnings: p.warnings}
	for _, w := range p.warnings {
		d.log.Warn().Str("table", w.Table).Str("column", w.Column).Msg(w.Msg)
	}

	if err := ensureDir(outDir); err != nil {
		return report, err
	}

	ext := d.gen.FileExtension()
	root := markedfile.New(filepath.Join(outDir, ModStem+ext))

	expected := make(map[string]bool, len(p.tables))
	for _, g := range p.tables {
		if err := d.writeTable(outDir, ext, g, report); err != nil {
			return report, err
		}
		if err := root.EnsureModule(g.Table.Name); err != nil {
			return report, err
		}
		expected[strings.ToLower(g.Table.Name)] = true
		report.Generated = append(report.Generated, g.Table.Name)
	}

	if err := d.removeOrphans(outDir, ext, root, expected, report); err != nil {
		return report, err
	}

	if err := persist(root, report); err != nil {
		return report, err
	}
	d.log.Debug().
		Int("generated", len(report.Generated)).
		Int("removed", len(report.Removed)).
		Int("written", len(report.Written)).
		Msg("run complete")
	return report, nil
}

func (d *Driver) writeTable(outDir, ext string, g GeneratedTable, report *Report) error {
	dir := filepath.Join(outDir, g.Table.Name)
	if err := ensureDir(dir); err != nil {
		return err
	}

	generated := markedfile.New(filepath.Join(dir, GeneratedStem+ext))
	if err := generated.SetContents(g.Code); err != nil {
		return err
	}
	if err := generated.EnsureSignature(); err != nil {
		return err
	}
	if err := persist(generated, report); err != nil {
		return err
	}

	mod := markedfile.New(filepath.Join(dir, ModStem+ext))
	if err := mod.EnsureModule(GeneratedStem); err != nil {
		return err
	}
	if err := mod.EnsureReexport(GeneratedStem + "::*"); err != nil {
		return err
	}
	if err := persist(mod, report); err != nil {
		return err
	}

	d.log.Debug().Str("table", g.Table.Name).Str("dir", dir).Msg("table generated")
	return nil
}

// removeOrphans walks the immediate subdirectories of outDir. Directories
// holding a signed generated file whose name matches no expected table,
// case-insensitively, lose their generated content.
func (d *Driver) removeOrphans(outDir, ext string, root *markedfile.File, expected map[string]bool, report *Report) error {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return markedfile.NewFilesystemError("read directory", outDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		dir := filepath.Join(outDir, name)
		generatedPath := filepath.Join(dir, GeneratedStem+ext)

		info, err := os.Stat(generatedPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return markedfile.NewFilesystemError("stat", generatedPath, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		generated := markedfile.New(generatedPath)
		owned, err := generated.HasSignature()
		if err != nil {
			return err
		}
		if !owned {
			d.log.Debug().Str("dir", dir).Msg("skipping directory not managed by dieselsync")
			continue
		}
		if expected[strings.ToLower(name)] {
			continue
		}

		if err := generated.Delete(); err != nil {
			return err
		}
		report.Written = append(report.Written, generatedPath)

		modPath := filepath.Join(dir, ModStem+ext)
		mod := markedfile.New(modPath)
		exists, err := mod.Exists()
		if err != nil {
			return err
		}
		if exists {
			if err := mod.RemoveModule(GeneratedStem); err != nil {
				return err
			}
			if err := mod.RemoveReexport(GeneratedStem + "::*"); err != nil {
				return err
			}
			blank, err := mod.IsBlank()
			if err != nil {
				return err
			}
			if blank {
				if err := mod.Delete(); err != nil {
					return err
				}
				report.Written = append(report.Written, modPath)
			} else if err := persist(mod, report); err != nil {
				return err
			}
		}

		empty, err := isEmptyDir(dir)
		if err != nil {
			return err
		}
		if empty {
			if err := os.Remove(dir); err != nil {
				return markedfile.NewFilesystemError("remove", dir, err)
			}
		}

		if err := root.RemoveModule(name); err != nil {
			return err
		}
		report.Removed = append(report.Removed, name)
		d.log.Info().Str("table", name).Bool("dirRemoved", empty).Msg("removed generated code for deleted table")
	}
	return nil
}

// persist writes f and records its path when the write changed anything.
func persist(f *markedfile.File, report *Report) error {
	changed := f.Changed()
	if err := f.Write(); err != nil {
		return err
	}
	if changed {
		report.Written = append(report.Written, f.Path())
	}
	return nil
}

// ensureDir creates path when it is missing. The parent must exist.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.Mkdir(path, 0o755); err != nil {
			return markedfile.NewFilesystemError("create directory", path, err)
		}
		return nil
	case err != nil:
		return markedfile.NewFilesystemError("stat", path, err)
	case !info.IsDir():
		return markedfile.NewFilesystemError("create directory", path, errNotDir)
	}
	return nil
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, markedfile.NewFilesystemError("open directory", path, err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, markedfile.NewFilesystemError("read directory", path, err)
	}
	return false, nil
}
