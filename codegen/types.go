package codegen

import (
	"fmt"
	"strings"

	"github.com/bfv/dieselsync/schema"
)

// rustType spells a normalised column type as a Rust value type.
func (e *emitter) rustType(t schema.Type) string {
	switch t.Kind {
	case schema.KindNullable:
		return "Option<" + e.rustType(*t.Elem) + ">"
	case schema.KindArray:
		return "Vec<" + e.rustType(*t.Elem) + ">"
	case schema.KindInteger:
		prefix := "i"
		if t.Unsigned {
			prefix = "u"
		}
		return fmt.Sprintf("%s%d", prefix, t.Bits)
	case schema.KindFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case schema.KindNumeric:
		return "bigdecimal::BigDecimal"
	case schema.KindText:
		return "String"
	case schema.KindBoolean:
		return "bool"
	case schema.KindTimestamp:
		if t.TZ {
			return "chrono::DateTime<chrono::Utc>"
		}
		return "chrono::NaiveDateTime"
	case schema.KindDate:
		return "chrono::NaiveDate"
	case schema.KindTime:
		return "chrono::NaiveTime"
	case schema.KindInterval:
		return "diesel::pg::data_types::PgInterval"
	case schema.KindBinary:
		return "Vec<u8>"
	case schema.KindUUID:
		return "uuid::Uuid"
	case schema.KindJSON:
		return "serde_json::Value"
	case schema.KindNetwork:
		return "ipnetwork::IpNetwork"
	default:
		return e.customType(t.Token)
	}
}

// customType resolves a bare custom type name through the table's use
// statements, rewriting super:: (the schema module) to crate::schema::.
func (e *emitter) customType(token string) string {
	if strings.Contains(token, "::") || strings.ContainsAny(token, "<(") {
		return token
	}
	for _, use := range e.t.Uses {
		if strings.ContainsAny(use, "{*") {
			continue
		}
		if !strings.HasSuffix(use, "::"+token) {
			continue
		}
		if rest, ok := strings.CutPrefix(use, "super::"); ok {
			return "crate::schema::" + rest
		}
		return use
	}
	return token
}
