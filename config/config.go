package config

import (
	"slices"
	"sort"
	"strings"
)

// TableOptions holds per-table generation settings. A nil field is unset and
// resolves through ApplyDefaults; an AutogeneratedColumns slice that is
// non-nil but empty is an explicit "none".
type TableOptions struct {
	Ignore *bool `yaml:"ignore,omitempty"`
	// AutogeneratedColumns lists non-key columns the database fills in
	// (created_at, updated_at, ...). They are left out of insertable structs.
	AutogeneratedColumns []string `yaml:"autogenerated_columns,omitempty"`
	// Tsync adds #[tsync::tsync] to generated structs.
	Tsync *bool `yaml:"tsync,omitempty"`
	// Async generates diesel_async functions.
	Async *bool `yaml:"async,omitempty"`
}

// IsIgnored reports whether no code should be generated for the table.
func (o TableOptions) IsIgnored() bool {
	return o.Ignore != nil && *o.Ignore
}

// UsesTsync reports whether tsync attributes are emitted.
func (o TableOptions) UsesTsync() bool {
	return o.Tsync != nil && *o.Tsync
}

// UsesAsync reports whether diesel_async code is emitted.
func (o TableOptions) UsesAsync() bool {
	return o.Async != nil && *o.Async
}

// Autogenerated returns the autogenerated column names, never nil.
func (o TableOptions) Autogenerated() []string {
	if o.AutogeneratedColumns == nil {
		return []string{}
	}
	return o.AutogeneratedColumns
}

// IsAutogenerated reports whether the named column is autogenerated.
func (o TableOptions) IsAutogenerated(column string) bool {
	return slices.Contains(o.AutogeneratedColumns, column)
}

// WithIgnore returns a copy with Ignore set.
func (o TableOptions) WithIgnore(v bool) TableOptions {
	o.Ignore = &v
	return o
}

// WithTsync returns a copy with Tsync set.
func (o TableOptions) WithTsync(v bool) TableOptions {
	o.Tsync = &v
	return o
}

// WithAsync returns a copy with Async set.
func (o TableOptions) WithAsync(v bool) TableOptions {
	o.Async = &v
	return o
}

// WithAutogeneratedColumns returns a copy with the autogenerated columns set.
func (o TableOptions) WithAutogeneratedColumns(cols ...string) TableOptions {
	o.AutogeneratedColumns = append([]string{}, cols...)
	return o
}

// ApplyDefaults fills every unset field from defaults. Fields resolve
// independently of each other.
func (o TableOptions) ApplyDefaults(defaults TableOptions) TableOptions {
	out := o
	if out.Ignore == nil {
		out.Ignore = defaults.Ignore
	}
	if out.Tsync == nil {
		out.Tsync = defaults.Tsync
	}
	if out.Async == nil {
		out.Async = defaults.Async
	}
	if out.AutogeneratedColumns == nil && defaults.AutogeneratedColumns != nil {
		out.AutogeneratedColumns = append([]string{}, defaults.AutogeneratedColumns...)
	}
	return out
}

// GenerationConfig is everything a run needs besides the schema itself.
type GenerationConfig struct {
	Tables   map[string]TableOptions
	Defaults TableOptions
	// ConnectionType is a dialect alias (postgres, mysql, sqlite) or a full
	// Rust connection type path.
	ConnectionType string
}

// DefaultConnectionType is used when no connection type is configured.
const DefaultConnectionType = "postgres"

// Default returns an empty configuration: no per-table overrides, unset
// defaults and the postgres connection type.
func Default() GenerationConfig {
	return GenerationConfig{
		Tables:         map[string]TableOptions{},
		ConnectionType: DefaultConnectionType,
	}
}

// Table returns the fully resolved options for a table. Tables with no
// entry get the defaults.
func (c GenerationConfig) Table(name string) TableOptions {
	var opts TableOptions
	if key, ok := c.TableKey(name); ok {
		opts = c.Tables[key]
	}
	return opts.ApplyDefaults(c.Defaults)
}

// TableKey returns the Tables key holding the options of a table. An exact
// match wins over a case-insensitive one, which is picked in sorted key order.
func (c GenerationConfig) TableKey(name string) (string, bool) {
	if _, ok := c.Tables[name]; ok {
		return name, true
	}
	for _, k := range c.TableNames() {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// TableNames returns the configured table keys in sorted order.
func (c GenerationConfig) TableNames() []string {
	keys := make([]string, 0, len(c.Tables))
	for k := range c.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
