package codegen

import "strings"

// Dialect pairs the blocking and diesel_async connection types of a backend.
type Dialect struct {
	Name  string
	Sync  string
	Async string
}

var dialects = map[string]Dialect{
	"postgres": {Name: "postgres", Sync: "diesel::pg::PgConnection", Async: "diesel_async::AsyncPgConnection"},
	"mysql":    {Name: "mysql", Sync: "diesel::mysql::MysqlConnection", Async: "diesel_async::AsyncMysqlConnection"},
	"sqlite":   {Name: "sqlite", Sync: "diesel::sqlite::SqliteConnection", Async: "diesel_async::sync_connection_wrapper::SyncConnectionWrapper<diesel::sqlite::SqliteConnection>"},
}

var dialectAliases = map[string]string{
	"pg":         "postgres",
	"postgresql": "postgres",
	"mariadb":    "mysql",
	"sqlite3":    "sqlite",
}

// LookupDialect resolves a dialect name or alias, case-insensitively.
func LookupDialect(name string) (Dialect, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := dialectAliases[key]; ok {
		key = alias
	}
	d, ok := dialects[key]
	return d, ok
}

// ResolveConnectionType turns a configured connection type into the Rust
// type path used in generated code. Unknown values are taken verbatim.
func ResolveConnectionType(connectionType string, async bool) string {
	if d, ok := LookupDialect(connectionType); ok {
		if async {
			return d.Async
		}
		return d.Sync
	}
	if connectionType == "" {
		return ResolveConnectionType("postgres", async)
	}
	return connectionType
}
