package codegen

import (
	"fmt"
	"strings"

	"github.com/bfv/dieselsync/config"
	"github.com/bfv/dieselsync/markedfile"
	"github.com/bfv/dieselsync/schema"
)

// Generator emits Rust model code for Diesel tables.
type Generator struct {
	connectionType string
}

// NewGenerator creates a generator for the given connection type, a dialect
// alias or a full Rust type path.
func NewGenerator(connectionType string) *Generator {
	return &Generator{connectionType: connectionType}
}

// Language returns the name of the target language.
func (g *Generator) Language() string {
	return "rust"
}

// FileExtension returns the extension of generated files.
func (g *Generator) FileExtension() string {
	return ".rs"
}

// Generate returns the full contents of a table's generated file. Output
// depends only on t and opts.
func (g *Generator) Generate(t *schema.Table, opts config.TableOptions) string {
	e := &emitter{
		w:       NewWriter("    "),
		t:       t,
		opts:    opts,
		model:   StructName(t.Name),
		conn:    ResolveConnectionType(g.connectionType, opts.UsesAsync()),
		tblPath: t.Name,
	}
	if t.Schema != "" {
		e.tblPath = t.Schema + "::" + t.Name
	}
	e.emit()
	return e.w.String()
}

type emitter struct {
	w       *Writer
	t       *schema.Table
	opts    config.TableOptions
	model   string
	conn    string
	tblPath string
}

func (e *emitter) emit() {
	w := e.w
	w.Line(markedfile.Signature)
	w.BlankLine()

	e.imports()
	w.BlankLine()

	if e.opts.UsesAsync() {
		w.Linef("type Connection = %s;", e.conn)
	} else {
		w.Linef("type Connection = diesel::r2d2::PooledConnection<diesel::r2d2::ConnectionManager<%s>>;", e.conn)
	}
	w.BlankLine()

	e.readStruct()
	w.BlankLine()

	insertable := e.insertableColumns()
	if len(insertable) > 0 {
		e.plainStruct("Create"+e.model, []string{"Insertable"}, insertable, false)
		w.BlankLine()
	}

	updatable := e.updatableColumns()
	if len(updatable) > 0 {
		e.plainStruct("Update"+e.model, []string{"AsChangeset", "Default"}, updatable, true)
		w.BlankLine()
	}

	e.paginationStruct()
	w.BlankLine()

	e.implBlock(len(insertable) > 0, len(updatable) > 0)
}

func (e *emitter) imports() {
	w := e.w
	w.Line("use crate::diesel::*;")
	w.Line("use crate::schema::*;")
	w.Line("use diesel::QueryResult;")
	if e.opts.UsesAsync() {
		w.Line("use diesel_async::RunQueryDsl;")
	}
	w.Line("use serde::{Deserialize, Serialize};")
	for _, fk := range e.t.ForeignKeys {
		if fk.References == e.t.Name {
			continue
		}
		w.Linef("use super::super::%s::%s;", fk.References, StructName(fk.References))
	}
}

func (e *emitter) attrs() {
	if e.opts.UsesTsync() {
		e.w.Line("#[tsync::tsync]")
	}
}

func (e *emitter) readStruct() {
	w := e.w
	derives := []string{"Debug", "Serialize", "Deserialize", "Clone", "Queryable", "Selectable", "Identifiable"}
	if len(e.t.ForeignKeys) > 0 {
		derives = append(derives, "Associations")
	}

	diesel := []string{"table_name = " + e.tblPath, "primary_key(" + strings.Join(e.t.PrimaryKey, ", ") + ")"}
	for _, fk := range e.t.ForeignKeys {
		diesel = append(diesel, fmt.Sprintf("belongs_to(%s, foreign_key = %s)", StructName(fk.References), fk.Column))
	}

	w.Doc(e.t.Doc)
	e.attrs()
	w.Linef("#[derive(%s)]", strings.Join(derives, ", "))
	w.Linef("#[diesel(%s)]", strings.Join(diesel, ", "))
	w.Block("pub struct "+e.model+" {", "}", func() {
		for _, c := range e.t.Columns {
			e.field(c, false)
		}
	})
}

func (e *emitter) plainStruct(name string, derives []string, cols []schema.Column, optional bool) {
	w := e.w
	e.attrs()
	w.Linef("#[derive(Debug, Serialize, Deserialize, Clone, %s)]", strings.Join(derives, ", "))
	w.Linef("#[diesel(table_name = %s)]", e.tblPath)
	w.Block("pub struct "+name+" {", "}", func() {
		for _, c := range cols {
			e.field(c, optional)
		}
	})
}

func (e *emitter) field(c schema.Column, optional bool) {
	e.w.Doc(c.Doc)
	typ := e.rustType(c.Type)
	if optional {
		typ = "Option<" + typ + ">"
	}
	e.w.Linef("pub %s: %s,", c.Name, typ)
}

func (e *emitter) paginationStruct() {
	w := e.w
	e.attrs()
	w.Line("#[derive(Debug, Serialize)]")
	w.Block("pub struct PaginationResult<T> {", "}", func() {
		w.Line("pub items: Vec<T>,")
		w.Line("pub total_items: i64,")
		w.Line("/// 0-based index")
		w.Line("pub page: i64,")
		w.Line("pub page_size: i64,")
		w.Line("pub num_pages: i64,")
	})
}

// insertableColumns excludes primary key and autogenerated columns.
func (e *emitter) insertableColumns() []schema.Column {
	var cols []schema.Column
	for _, c := range e.t.Columns {
		if e.t.IsPrimaryKey(c.Name) || e.opts.IsAutogenerated(c.Name) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func (e *emitter) updatableColumns() []schema.Column {
	var cols []schema.Column
	for _, c := range e.t.Columns {
		if !e.t.IsPrimaryKey(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (e *emitter) implBlock(insertable, updatable bool) {
	w := e.w
	async := e.opts.UsesAsync()
	fn := "pub fn"
	await := ""
	if async {
		fn = "pub async fn"
		await = ".await"
	}
	dsl := fmt.Sprintf("use crate::schema::%s::dsl::*;", e.tblPath)

	keys := e.t.PrimaryKeyColumns()
	params := make([]string, len(keys))
	filters := make([]string, len(keys))
	for i, k := range keys {
		param := "param_" + strings.TrimPrefix(k.Name, "r#")
		params[i] = fmt.Sprintf("%s: %s", param, e.rustType(k.Type))
		filters[i] = fmt.Sprintf(".filter(%s.eq(%s))", k.Name, param)
	}
	keyParams := strings.Join(params, ", ")
	keyFilter := e.t.Name + strings.Join(filters, "")

	body := func(lines ...string) func() {
		return func() {
			w.Line(dsl)
			w.BlankLine()
			for _, l := range lines {
				w.Line(l)
			}
		}
	}

	w.Block("impl "+e.model+" {", "}", func() {
		if insertable {
			w.Block(fmt.Sprintf("%s create(db: &mut Connection, item: &Create%s) -> QueryResult<Self> {", fn, e.model), "}",
				body(fmt.Sprintf("insert_into(%s).values(item).get_result::<Self>(db)%s", e.t.Name, await)))
			w.BlankLine()
		}

		w.Block(fmt.Sprintf("%s read(db: &mut Connection, %s) -> QueryResult<Self> {", fn, keyParams), "}",
			body(fmt.Sprintf("%s.first::<Self>(db)%s", keyFilter, await)))
		w.BlankLine()

		w.Line("/// Paginates through the table where page is a 0-based index (i.e. page 0 is the first page)")
		w.Block(fmt.Sprintf("%s paginate(db: &mut Connection, page: i64, page_size: i64) -> QueryResult<PaginationResult<Self>> {", fn), "}", func() {
			w.Line(dsl)
			w.BlankLine()
			w.Line("let page_size = if page_size < 1 { 1 } else { page_size };")
			w.Linef("let total_items = %s.count().get_result(db)%s?;", e.t.Name, await)
			w.Linef("let items = %s.limit(page_size).offset(page * page_size).load::<Self>(db)%s?;", e.t.Name, await)
			w.BlankLine()
			w.Block("Ok(PaginationResult {", "})", func() {
				w.Line("items,")
				w.Line("total_items,")
				w.Line("page,")
				w.Line("page_size,")
				w.Line("num_pages: total_items / page_size + i64::from(total_items % page_size != 0),")
			})
		})
		w.BlankLine()

		if updatable {
			w.Block(fmt.Sprintf("%s update(db: &mut Connection, %s, item: &Update%s) -> QueryResult<Self> {", fn, keyParams, e.model), "}",
				body(fmt.Sprintf("diesel::update(%s).set(item).get_result(db)%s", keyFilter, await)))
			w.BlankLine()
		}

		w.Block(fmt.Sprintf("%s delete(db: &mut Connection, %s) -> QueryResult<usize> {", fn, keyParams), "}",
			body(fmt.Sprintf("diesel::delete(%s).execute(db)%s", keyFilter, await)))
	})
}
