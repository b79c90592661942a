package schema

import (
	"fmt"
	"strings"
)

// Kind is the semantic category a Diesel SQL type token normalises into.
type Kind int

const (
	KindCustom Kind = iota
	KindInteger
	KindFloat
	KindNumeric
	KindText
	KindBoolean
	KindTimestamp
	KindDate
	KindTime
	KindInterval
	KindBinary
	KindUUID
	KindJSON
	KindNetwork
	KindNullable
	KindArray
)

var kindNames = map[Kind]string{
	KindCustom:    "custom",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindNumeric:   "numeric",
	KindText:      "text",
	KindBoolean:   "boolean",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindTime:      "time",
	KindInterval:  "interval",
	KindBinary:    "binary",
	KindUUID:      "uuid",
	KindJSON:      "json",
	KindNetwork:   "network",
	KindNullable:  "nullable",
	KindArray:     "array",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Type is a normalised column type. Nullable and Array wrap Elem.
type Type struct {
	Kind Kind `yaml:"kind"`
	// Token is the type as written in the schema, e.g. "Nullable<Int4>".
	Token string `yaml:"token"`
	// Bits is the width of Integer and Float kinds.
	Bits     int  `yaml:"bits,omitempty"`
	Unsigned bool `yaml:"unsigned,omitempty"`
	// TZ marks Timestamptz.
	TZ        bool  `yaml:"tz,omitempty"`
	Precision int   `yaml:"precision,omitempty"`
	Scale     int   `yaml:"scale,omitempty"`
	Elem      *Type `yaml:"elem,omitempty"`
}

// Unwrap strips a Nullable wrapper, if any.
func (t Type) Unwrap() Type {
	if t.Kind == KindNullable && t.Elem != nil {
		return *t.Elem
	}
	return t
}

// Equal reports whether two types are structurally identical, ignoring the
// raw token spelling.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Bits != o.Bits || t.Unsigned != o.Unsigned ||
		t.TZ != o.TZ || t.Precision != o.Precision || t.Scale != o.Scale {
		return false
	}
	if t.Kind == KindCustom && t.Token != o.Token {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

// scalar kinds keyed by the last path segment of a Diesel SQL type.
var scalarTypes = map[string]Type{
	"TinyInt":     {Kind: KindInteger, Bits: 8},
	"Tinyint":     {Kind: KindInteger, Bits: 8},
	"Int2":        {Kind: KindInteger, Bits: 16},
	"SmallInt":    {Kind: KindInteger, Bits: 16},
	"Smallint":    {Kind: KindInteger, Bits: 16},
	"Int4":        {Kind: KindInteger, Bits: 32},
	"Integer":     {Kind: KindInteger, Bits: 32},
	"Serial":      {Kind: KindInteger, Bits: 32},
	"Int8":        {Kind: KindInteger, Bits: 64},
	"BigInt":      {Kind: KindInteger, Bits: 64},
	"Bigint":      {Kind: KindInteger, Bits: 64},
	"BigSerial":   {Kind: KindInteger, Bits: 64},
	"Float4":      {Kind: KindFloat, Bits: 32},
	"Float":       {Kind: KindFloat, Bits: 32},
	"Float8":      {Kind: KindFloat, Bits: 64},
	"Double":      {Kind: KindFloat, Bits: 64},
	"Numeric":     {Kind: KindNumeric},
	"Decimal":     {Kind: KindNumeric},
	"Text":        {Kind: KindText},
	"Varchar":     {Kind: KindText},
	"VarChar":     {Kind: KindText},
	"Char":        {Kind: KindText},
	"Bpchar":      {Kind: KindText},
	"Citext":      {Kind: KindText},
	"Tinytext":    {Kind: KindText},
	"Mediumtext":  {Kind: KindText},
	"Longtext":    {Kind: KindText},
	"Bool":        {Kind: KindBoolean},
	"Timestamp":   {Kind: KindTimestamp},
	"Datetime":    {Kind: KindTimestamp},
	"Timestamptz": {Kind: KindTimestamp, TZ: true},
	"Date":        {Kind: KindDate},
	"Time":        {Kind: KindTime},
	"Interval":    {Kind: KindInterval},
	"Bytea":       {Kind: KindBinary},
	"Binary":      {Kind: KindBinary},
	"Varbinary":   {Kind: KindBinary},
	"Blob":        {Kind: KindBinary},
	"Tinyblob":    {Kind: KindBinary},
	"Mediumblob":  {Kind: KindBinary},
	"Longblob":    {Kind: KindBinary},
	"Uuid":        {Kind: KindUUID},
	"Json":        {Kind: KindJSON},
	"Jsonb":       {Kind: KindJSON},
	"Inet":        {Kind: KindNetwork},
	"Cidr":        {Kind: KindNetwork},
}

// lastSegment returns the final component of a :: path.
func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}
