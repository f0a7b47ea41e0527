package dbml

import (
	"fmt"

	"github.com/makecodes/dbmlgen/model"
)

// FallbackType is the DBML type used for field kinds with no mapping.
const FallbackType = "text"

// kindToDBML is the fixed lookup table from field kinds to DBML type
// tokens. There is no dynamic introspection: a kind either maps here or
// falls back to text.
var kindToDBML = map[model.FieldKind]string{
	model.KindAuto:            "int",
	model.KindBigAuto:         "bigint",
	model.KindChar:            "varchar",
	model.KindText:            "text",
	model.KindSlug:            "varchar",
	model.KindEmail:           "varchar",
	model.KindURL:             "varchar",
	model.KindInteger:         "int",
	model.KindBigInteger:      "bigint",
	model.KindSmallInteger:    "smallint",
	model.KindPositiveInteger: "int",
	model.KindFloat:           "float",
	model.KindDecimal:         "decimal",
	model.KindBoolean:         "boolean",
	model.KindDate:            "date",
	model.KindDateTime:        "timestamp",
	model.KindTime:            "time",
	model.KindDuration:        "interval",
	model.KindUUID:            "uuid",
	model.KindJSON:            "json",
	model.KindBinary:          "binary",
	model.KindIPAddress:       "inet",
	model.KindFile:            "varchar",
	model.KindImage:           "varchar",
}

// MapKind converts a field kind to its DBML type token. Unmapped kinds
// fall back to the generic text type.
func MapKind(kind model.FieldKind) string {
	if t, ok := kindToDBML[kind]; ok {
		return t
	}
	return FallbackType
}

// columnType returns the rendered DBML type for a field, applying the
// declared length to length-parameterized types.
func columnType(f *model.Field) string {
	t := MapKind(f.Kind)
	if f.MaxLength > 0 && t == "varchar" {
		return fmt.Sprintf("varchar(%d)", f.MaxLength)
	}
	return t
}
