package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogSchema = `// @generated automatically by Diesel CLI.

diesel::table! {
    /// Blog posts.
    posts (id) {
        id -> Int4,
        title -> Varchar,
        body -> Nullable<Text>,
        author_id -> Int4,
        created_at -> Timestamptz,
    }
}

diesel::table! {
    users {
        id -> Int8,
        name -> Text,
    }
}

diesel::joinable!(posts -> users (author_id));

diesel::allow_tables_to_appear_in_same_query!(
    posts,
    users,
);
`

func TestParse_BlogSchema(t *testing.T) {
	// Test: tables, columns, keys and joins of a typical Diesel CLI schema
	tables, err := Parse(blogSchema)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	posts := tables[0]
	assert.Equal(t, "posts", posts.Name)
	assert.Equal(t, "Blog posts.", posts.Doc)
	assert.Equal(t, []string{"id"}, posts.PrimaryKey)
	assert.True(t, posts.ExplicitKey)
	require.Len(t, posts.Columns, 5)
	assert.Equal(t, []string{"id", "title", "body", "author_id", "created_at"},
		[]string{posts.Columns[0].Name, posts.Columns[1].Name, posts.Columns[2].Name, posts.Columns[3].Name, posts.Columns[4].Name})

	body := posts.Column("body")
	require.NotNil(t, body)
	assert.True(t, body.Nullable)
	assert.Equal(t, KindNullable, body.Type.Kind)
	assert.Equal(t, KindText, body.Type.Unwrap().Kind)
	assert.Equal(t, "Nullable<Text>", body.Type.Token)

	assert.True(t, posts.Column("created_at").Type.TZ)
	assert.Equal(t, []ForeignKey{{Column: "author_id", References: "users"}}, posts.ForeignKeys)

	users := tables[1]
	assert.Equal(t, []string{"id"}, users.PrimaryKey)
	assert.False(t, users.ExplicitKey)
	assert.Equal(t, 64, users.Column("id").Type.Bits)
	assert.Empty(t, users.ForeignKeys)
}

func TestParse_Types(t *testing.T) {
	tests := []struct {
		decl string
		want Type
	}{
		{"Int2", Type{Kind: KindInteger, Token: "Int2", Bits: 16}},
		{"BigInt", Type{Kind: KindInteger, Token: "BigInt", Bits: 64}},
		{"Unsigned<Integer>", Type{Kind: KindInteger, Token: "Unsigned<Integer>", Bits: 32, Unsigned: true}},
		{"Float8", Type{Kind: KindFloat, Token: "Float8", Bits: 64}},
		{"Numeric(10, 2)", Type{Kind: KindNumeric, Token: "Numeric(10, 2)", Precision: 10, Scale: 2}},
		{"diesel::sql_types::Bool", Type{Kind: KindBoolean, Token: "diesel::sql_types::Bool"}},
		{"Timestamp", Type{Kind: KindTimestamp, Token: "Timestamp"}},
		{"Date", Type{Kind: KindDate, Token: "Date"}},
		{"Bytea", Type{Kind: KindBinary, Token: "Bytea"}},
		{"Uuid", Type{Kind: KindUUID, Token: "Uuid"}},
		{"Jsonb", Type{Kind: KindJSON, Token: "Jsonb"}},
		{"Inet", Type{Kind: KindNetwork, Token: "Inet"}},
		{"Interval", Type{Kind: KindInterval, Token: "Interval"}},
		{"Array<Text>", Type{Kind: KindArray, Token: "Array<Text>", Elem: &Type{Kind: KindText, Token: "Text"}}},
		{"Nullable<Array<Nullable<Int4>>>", Type{
			Kind:  KindNullable,
			Token: "Nullable<Array<Nullable<Int4>>>",
			Elem: &Type{Kind: KindArray, Token: "Array<Nullable<Int4>>", Elem: &Type{
				Kind: KindNullable, Token: "Nullable<Int4>", Elem: &Type{Kind: KindInteger, Token: "Int4", Bits: 32},
			}},
		}},
		{"MoodEnum", Type{Kind: KindCustom, Token: "MoodEnum"}},
		{"crate::schema::sql_types::Mood", Type{Kind: KindCustom, Token: "crate::schema::sql_types::Mood"}},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			tables, err := Parse("table! { things { id -> Int4, value -> " + tt.decl + ", } }")
			require.NoError(t, err)
			got := tables[0].Column("value").Type
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_PrimaryKey(t *testing.T) {
	// Test: composite explicit keys keep declaration order
	tables, err := Parse(`table! { user_roles (role_id, user_id) { user_id -> Int4, role_id -> Int4, } }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"role_id", "user_id"}, tables[0].PrimaryKey)

	cols := tables[0].PrimaryKeyColumns()
	require.Len(t, cols, 2)
	assert.Equal(t, "role_id", cols[0].Name)
	assert.True(t, tables[0].IsPrimaryKey("user_id"))
}

func TestParse_ExplicitKeyWinsOverID(t *testing.T) {
	// Test: an explicit key is used even when an "id" column exists
	tables, err := Parse(`table! { accounts (code) { id -> Int4, code -> Text, } }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, tables[0].PrimaryKey)
	assert.False(t, tables[0].IsPrimaryKey("id"))
}

func TestParse_SchemaQualifiedAndAttributes(t *testing.T) {
	// Test: schema prefixes, sql_name, max_length, doc attributes and use lines
	input := `
diesel::table! {
    use diesel::sql_types::*;
    use super::sql_types::Mood;

    #[sql_name = "People"]
    #[doc = " Everyone."]
    app.people (id) {
        id -> Int4,
        /// Display name.
        #[max_length = 255]
        name -> Varchar,
        #[sql_name = "type"]
        kind -> Mood,
        r#ref -> Text,
    }
}
`
	tables, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	p := tables[0]
	assert.Equal(t, "app", p.Schema)
	assert.Equal(t, "people", p.Name)
	assert.Equal(t, "People", p.SQLName)
	assert.Equal(t, "Everyone.", p.Doc)
	assert.Equal(t, []string{"diesel::sql_types::*", "super::sql_types::Mood"}, p.Uses)

	name := p.Column("name")
	require.NotNil(t, name)
	assert.Equal(t, 255, name.MaxLength)
	assert.Equal(t, "Display name.", name.Doc)

	kind := p.Column("kind")
	require.NotNil(t, kind)
	assert.Equal(t, "type", kind.SQLName)
	assert.Equal(t, KindCustom, kind.Type.Kind)
	assert.Zero(t, kind.MaxLength)

	assert.NotNil(t, p.Column("r#ref"))
}

func TestParse_SkipsOtherConstructs(t *testing.T) {
	// Test: modules, custom type declarations and other macros are ignored
	input := `
pub mod sql_types {
    #[derive(diesel::query_builder::QueryId, diesel::sql_types::SqlType)]
    #[diesel(postgres_type(name = "mood"))]
    pub struct Mood;
}

table! { tags { id -> Int4, label -> Text, } }

diesel::allow_tables_to_appear_in_same_query!(tags,);
`
	tables, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "tags", tables[0].Name)
}

func TestParse_Empty(t *testing.T) {
	// Test: input without tables yields no tables
	tables, err := Parse("// nothing here\n")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		table string
		msg   string
	}{
		{
			name:  "missing primary key",
			input: "table! { logs { message -> Text, } }",
			table: "logs",
			msg:   `no primary key declared and no "id" column`,
		},
		{
			name:  "unknown key column",
			input: "table! { logs (uid) { id -> Int4, } }",
			table: "logs",
			msg:   `primary key column "uid" does not exist`,
		},
		{
			name:  "empty key",
			input: "table! { logs () { id -> Int4, } }",
			table: "logs",
			msg:   "empty primary key declaration",
		},
		{
			name:  "no columns",
			input: "table! { logs (id) { } }",
			table: "logs",
			msg:   "table has no columns",
		},
		{
			name:  "duplicate column",
			input: "table! { logs { id -> Int4, id -> Int8, } }",
			table: "logs",
			msg:   `duplicate column "id"`,
		},
		{
			name:  "duplicate table ignoring case",
			input: "table! { logs { id -> Int4, } }\ntable! { Logs { id -> Int4, } }",
			table: "Logs",
			msg:   "duplicate table declaration",
		},
		{
			name:  "missing comma",
			input: "table! { logs { id -> Int4 name -> Text } }",
			table: "logs",
			msg:   `expected "," or "}" after column "id"`,
		},
		{
			name:  "nullable without argument",
			input: "table! { logs { id -> Int4, note -> Nullable<>, } }",
			table: "logs",
			msg:   `expected identifier, found ">"`,
		},
		{
			name:  "numeric precision overflows int",
			input: "table! { prices { id -> Int4, amount -> Numeric(99999999999999999999, 2), } }",
			table: "prices",
			msg:   `invalid number "99999999999999999999" in Numeric(..)`,
		},
		{
			name:  "unterminated table",
			input: "table! { logs { id -> Int4,",
			table: "logs",
			msg:   "unterminated column list",
		},
		{
			name:  "joinable unknown parent",
			input: "table! { posts { id -> Int4, user_id -> Int4, } }\njoinable!(posts -> users (user_id));",
			table: "posts",
			msg:   `joinable! references unknown table "users"`,
		},
		{
			name:  "joinable unknown column",
			input: "table! { posts { id -> Int4, } }\ntable! { users { id -> Int4, } }\njoinable!(posts -> users (user_id));",
			table: "posts",
			msg:   `joinable! foreign key column "user_id" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.table, pe.Table)
			assert.Contains(t, pe.Msg, tt.msg)
		})
	}
}

func TestParse_ErrorLine(t *testing.T) {
	// Test: errors carry the line of the offending token
	input := "table! {\n    logs {\n        id -> Int4,\n        name Text,\n    }\n}\n"
	_, err := Parse(input)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Equal(t, `parse error in table "logs" at line 4: expected "->", found "Text"`, pe.Error())
}

func TestParseError_Format(t *testing.T) {
	// Test: table and line are omitted from the message when unknown
	assert.Equal(t, "parse error: boom", (&ParseError{Msg: "boom"}).Error())
	assert.Equal(t, `parse error in table "t": boom`, (&ParseError{Table: "t", Msg: "boom"}).Error())
}

func TestType_Equal(t *testing.T) {
	// Test: equality ignores spelling but not structure
	a := Type{Kind: KindInteger, Token: "Int4", Bits: 32}
	b := Type{Kind: KindInteger, Token: "diesel::sql_types::Integer", Bits: 32}
	c := Type{Kind: KindInteger, Token: "Int8", Bits: 64}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	na := Type{Kind: KindNullable, Elem: &a}
	nb := Type{Kind: KindNullable, Elem: &b}
	assert.True(t, na.Equal(nb))
	assert.False(t, na.Equal(a))

	assert.False(t, Type{Kind: KindCustom, Token: "Mood"}.Equal(Type{Kind: KindCustom, Token: "Color"}))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "timestamp", KindTimestamp.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
