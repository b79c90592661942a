package codegen

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// StructName is the model struct name for a table: posts -> Post,
// user_roles -> UserRole. A raw identifier prefix is dropped.
func StructName(table string) string {
	table = strings.TrimPrefix(table, "r#")
	return inflect.Camelize(inflect.Singularize(strings.ToLower(table)))
}
