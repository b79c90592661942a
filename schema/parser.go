package schema

import (
	"strconv"
	"strings"
)

// DefaultPrimaryKey is the column assumed to be the primary key when a
// table declaration does not name one.
const DefaultPrimaryKey = "id"

var closers = map[string]string{"{": "}", "(": ")", "[": "]"}

type parser struct {
	toks  []token
	pos   int
	table string
}

type joinable struct {
	child, parent, column string
	line                  int
}

// Parse reads the contents of a Diesel schema.rs and returns its tables in
// declaration order. Anything that is not a table! or joinable! invocation
// is skipped. The first error aborts the parse.
func Parse(input string) ([]Table, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	var tables []Table
	var joins []joinable
	for !p.at(tokEOF) {
		switch {
		case p.macro("table"):
			t, err := p.parseTableMacro()
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		case p.macro("joinable"):
			j, err := p.parseJoinable()
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
		default:
			if err := p.skip(); err != nil {
				return nil, err
			}
		}
	}

	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if seen[key] {
			return nil, newParseError(t.Name, 0, "duplicate table declaration")
		}
		seen[key] = true
	}

	for _, j := range joins {
		child := findTable(tables, j.child)
		if child == nil {
			return nil, newParseError(j.child, j.line, "joinable! references unknown table %q", j.child)
		}
		if findTable(tables, j.parent) == nil {
			return nil, newParseError(j.child, j.line, "joinable! references unknown table %q", j.parent)
		}
		if child.Column(j.column) == nil {
			return nil, newParseError(j.child, j.line, "joinable! foreign key column %q does not exist", j.column)
		}
		child.ForeignKeys = append(child.ForeignKeys, ForeignKey{Column: j.column, References: j.parent})
	}

	return tables, nil
}

func findTable(tables []Table, name string) *Table {
	for i := range tables {
		if tables[i].Name == name {
			return &tables[i]
		}
	}
	return nil
}

// ── Token helpers ─────────────────────────────────────────────────────────────

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokenKind) bool {
	return p.peek().kind == kind
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return newParseError(p.table, p.peek().line, format, args...)
}

func (p *parser) expectPunct(text string) error {
	if !p.peek().punct(text) {
		return p.errorf("expected %q, found %s", text, describe(p.peek()))
	}
	p.next()
	return nil
}

func (p *parser) expectIdent() (token, error) {
	if !p.at(tokIdent) {
		return token{}, p.errorf("expected identifier, found %s", describe(p.peek()))
	}
	return p.next(), nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

// macro consumes `[diesel::]name!` when it starts at the current position.
func (p *parser) macro(name string) bool {
	n := 0
	if p.peek().is(tokIdent, "diesel") && p.peekAt(1).punct("::") {
		n = 2
	}
	if !p.peekAt(n).is(tokIdent, name) || !p.peekAt(n+1).punct("!") {
		return false
	}
	p.pos += n + 2
	return true
}

// skip advances past one token, or past a whole balanced group when the
// current token opens one.
func (p *parser) skip() error {
	t := p.next()
	closer, ok := closers[t.text]
	if t.kind != tokPunct || !ok {
		return nil
	}
	for {
		switch cur := p.peek(); {
		case cur.kind == tokEOF:
			return newParseError(p.table, t.line, "unterminated %q block", t.text)
		case cur.punct(closer):
			p.next()
			return nil
		default:
			if err := p.skip(); err != nil {
				return err
			}
		}
	}
}

// openGroup consumes an opening delimiter and returns its closer.
func (p *parser) openGroup() (string, error) {
	t := p.peek()
	if closer, ok := closers[t.text]; ok && t.kind == tokPunct {
		p.next()
		return closer, nil
	}
	return "", p.errorf("expected macro body, found %s", describe(t))
}

// ── table! ────────────────────────────────────────────────────────────────────

func (p *parser) parseTableMacro() (Table, error) {
	p.table = ""
	defer func() { p.table = "" }()

	closer, err := p.openGroup()
	if err != nil {
		return Table{}, err
	}

	var t Table
	var docs []string
	for {
		switch tok := p.peek(); {
		case tok.is(tokIdent, "use"):
			p.next()
			path, err := p.parseUse()
			if err != nil {
				return Table{}, err
			}
			t.Uses = append(t.Uses, path)
			continue
		case tok.kind == tokDoc:
			docs = append(docs, p.next().text)
			continue
		case tok.punct("#"):
			name, value, err := p.parseAttribute()
			if err != nil {
				return Table{}, err
			}
			switch name {
			case "sql_name":
				t.SQLName = value
			case "doc":
				docs = append(docs, strings.TrimSpace(value))
			}
			continue
		}
		break
	}
	t.Doc = strings.Join(docs, "\n")

	name, err := p.expectIdent()
	if err != nil {
		return Table{}, err
	}
	t.Name = name.text
	if p.peek().punct(".") {
		p.next()
		name, err = p.expectIdent()
		if err != nil {
			return Table{}, err
		}
		t.Schema, t.Name = t.Name, name.text
	}
	p.table = t.Name
	line := name.line

	if p.peek().punct("(") {
		p.next()
		keys, err := p.parseIdentList(")")
		if err != nil {
			return Table{}, err
		}
		if len(keys) == 0 {
			return Table{}, newParseError(t.Name, line, "empty primary key declaration")
		}
		t.PrimaryKey = keys
		t.ExplicitKey = true
	}

	if err := p.expectPunct("{"); err != nil {
		return Table{}, err
	}
	if err := p.parseColumns(&t); err != nil {
		return Table{}, err
	}
	if err := p.expectPunct(closer); err != nil {
		return Table{}, err
	}

	if len(t.Columns) == 0 {
		return Table{}, newParseError(t.Name, line, "table has no columns")
	}
	if err := resolvePrimaryKey(&t, line); err != nil {
		return Table{}, err
	}
	return t, nil
}

// resolvePrimaryKey validates an explicit key, or falls back to a column
// named DefaultPrimaryKey.
func resolvePrimaryKey(t *Table, line int) error {
	if t.ExplicitKey {
		for _, pk := range t.PrimaryKey {
			if t.Column(pk) == nil {
				return newParseError(t.Name, line, "primary key column %q does not exist", pk)
			}
		}
		return nil
	}
	if t.Column(DefaultPrimaryKey) != nil {
		t.PrimaryKey = []string{DefaultPrimaryKey}
		return nil
	}
	return newParseError(t.Name, line, "no primary key declared and no %q column", DefaultPrimaryKey)
}

func (p *parser) parseColumns(t *Table) error {
	var docs []string
	var sqlName string
	var maxLength int

	for {
		tok := p.peek()
		switch {
		case tok.kind == tokEOF:
			return p.errorf("unterminated column list")

		case tok.punct("}"):
			p.next()
			return nil

		case tok.kind == tokDoc:
			docs = append(docs, p.next().text)

		case tok.punct("#"):
			name, value, err := p.parseAttribute()
			if err != nil {
				return err
			}
			switch name {
			case "sql_name":
				sqlName = value
			case "max_length":
				n, err := strconv.Atoi(value)
				if err != nil {
					return newParseError(t.Name, tok.line, "invalid max_length %q", value)
				}
				maxLength = n
			case "doc":
				docs = append(docs, strings.TrimSpace(value))
			}

		case tok.kind == tokIdent:
			p.next()
			if t.Column(tok.text) != nil {
				return newParseError(t.Name, tok.line, "duplicate column %q", tok.text)
			}
			if err := p.expectPunct("->"); err != nil {
				return err
			}
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			t.Columns = append(t.Columns, Column{
				Name:      tok.text,
				SQLName:   sqlName,
				Doc:       strings.Join(docs, "\n"),
				Type:      typ,
				Nullable:  typ.Kind == KindNullable,
				MaxLength: maxLength,
			})
			docs, sqlName, maxLength = nil, "", 0

			if p.peek().punct(",") {
				p.next()
			} else if !p.peek().punct("}") {
				return p.errorf("expected \",\" or \"}\" after column %q, found %s", tok.text, describe(p.peek()))
			}

		default:
			return p.errorf("unexpected %s in column list", describe(tok))
		}
	}
}

// parseType reads `path[<T, ..>|(N, ..)]` and normalises it.
func (p *parser) parseType() (Type, error) {
	first, err := p.expectIdent()
	if err != nil {
		return Type{}, err
	}
	path := first.text
	for p.peek().punct("::") {
		p.next()
		seg, err := p.expectIdent()
		if err != nil {
			return Type{}, err
		}
		path += "::" + seg.text
	}
	name := lastSegment(path)

	var args []Type
	var nums []int
	spelled := path

	switch {
	case p.peek().punct("<"):
		p.next()
		for {
			arg, err := p.parseType()
			if err != nil {
				return Type{}, err
			}
			args = append(args, arg)
			if p.peek().punct(",") {
				p.next()
				continue
			}
			if err := p.expectPunct(">"); err != nil {
				return Type{}, err
			}
			break
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Token
		}
		spelled += "<" + strings.Join(parts, ", ") + ">"

	case p.peek().punct("("):
		p.next()
		for !p.peek().punct(")") {
			if !p.at(tokNumber) {
				return Type{}, p.errorf("expected number in %s(..), found %s", name, describe(p.peek()))
			}
			tok := p.next()
			n, err := strconv.Atoi(tok.text)
			if err != nil {
				return Type{}, newParseError(p.table, tok.line, "invalid number %q in %s(..)", tok.text, name)
			}
			nums = append(nums, n)
			if p.peek().punct(",") {
				p.next()
			}
		}
		p.next()
		parts := make([]string, len(nums))
		for i, n := range nums {
			parts[i] = strconv.Itoa(n)
		}
		spelled += "(" + strings.Join(parts, ", ") + ")"
	}

	switch name {
	case "Nullable", "Array":
		if len(args) != 1 {
			return Type{}, p.errorf("%s expects exactly one type argument", name)
		}
		kind := KindNullable
		if name == "Array" {
			kind = KindArray
		}
		return Type{Kind: kind, Token: spelled, Elem: &args[0]}, nil
	case "Unsigned":
		if len(args) != 1 || args[0].Kind != KindInteger {
			return Type{}, p.errorf("Unsigned expects one integer type argument")
		}
		t := args[0]
		t.Unsigned = true
		t.Token = spelled
		return t, nil
	}

	if scalar, ok := scalarTypes[name]; ok && len(args) == 0 {
		scalar.Token = spelled
		if scalar.Kind == KindNumeric && len(nums) > 0 {
			scalar.Precision = nums[0]
			if len(nums) > 1 {
				scalar.Scale = nums[1]
			}
		}
		return scalar, nil
	}
	return Type{Kind: KindCustom, Token: spelled}, nil
}

// parseAttribute reads `#[name]`, `#[name = value]` or `#[name(..)]`.
func (p *parser) parseAttribute() (name, value string, err error) {
	p.next()
	if err := p.expectPunct("["); err != nil {
		return "", "", err
	}
	ident, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	name = ident.text
	switch {
	case p.peek().punct("="):
		p.next()
		v := p.next()
		if v.kind != tokString && v.kind != tokNumber && v.kind != tokIdent {
			return "", "", newParseError(p.table, v.line, "invalid value for attribute %q", name)
		}
		value = v.text
	case p.peek().punct("("):
		if err := p.skip(); err != nil {
			return "", "", err
		}
	}
	if err := p.expectPunct("]"); err != nil {
		return "", "", err
	}
	return name, value, nil
}

// parseUse reads the remainder of a use statement up to and including ";".
func (p *parser) parseUse() (string, error) {
	var b strings.Builder
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return "", newParseError(p.table, t.line, "unterminated use statement")
		case t.punct(";"):
			return b.String(), nil
		case t.punct(","):
			b.WriteString(", ")
		default:
			b.WriteString(t.text)
		}
	}
}

func (p *parser) parseIdentList(closer string) ([]string, error) {
	var names []string
	for !p.peek().punct(closer) {
		ident, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, ident.text)
		if p.peek().punct(",") {
			p.next()
		} else if !p.peek().punct(closer) {
			return nil, p.errorf("expected \",\" or %q, found %s", closer, describe(p.peek()))
		}
	}
	p.next()
	return names, nil
}

// ── joinable! ─────────────────────────────────────────────────────────────────

func (p *parser) parseJoinable() (joinable, error) {
	closer, err := p.openGroup()
	if err != nil {
		return joinable{}, err
	}
	child, err := p.expectIdent()
	if err != nil {
		return joinable{}, err
	}
	if err := p.expectPunct("->"); err != nil {
		return joinable{}, err
	}
	parent, err := p.expectIdent()
	if err != nil {
		return joinable{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return joinable{}, err
	}
	column, err := p.expectIdent()
	if err != nil {
		return joinable{}, err
	}
	if err := p.expectPunct(")"); err != nil {
		return joinable{}, err
	}
	if err := p.expectPunct(closer); err != nil {
		return joinable{}, err
	}
	if p.peek().punct(";") {
		p.next()
	}
	return joinable{child: child.text, parent: parent.text, column: column.text, line: child.line}, nil
}
