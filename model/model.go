package model

import "strings"

// Model describes one schema table as declared by a host application:
// its identity, columns, and relationships to other models. Models are
// read-only once registered; generation never mutates them.
type Model struct {
	App       string     `json:"app"`
	Name      string     `json:"name"`
	Table     string     `json:"table"`
	Note      string     `json:"note,omitempty"`
	Fields    []Field    `json:"fields"`
	Relations []Relation `json:"relations,omitempty"`
	Indexes   []Index    `json:"indexes,omitempty"`

	// Synthetic marks models materialized during collection (many-to-many
	// join tables) rather than declared by the application.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Label returns the qualified "app.Name" identifier used in DBML output
// and in filter tokens. Qualification avoids clashes between same-named
// models in different apps.
func (m *Model) Label() string {
	return m.App + "." + m.Name
}

// Field returns the field with the given name, or nil if none exists.
func (m *Model) Field(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// PrimaryKey returns the first primary key field, or nil if the model
// declares none.
func (m *Model) PrimaryKey() *Field {
	for i := range m.Fields {
		if m.Fields[i].PrimaryKey {
			return &m.Fields[i]
		}
	}
	return nil
}

// Field describes a single column within a model.
type Field struct {
	Name       string    `json:"name"`
	Kind       FieldKind `json:"kind"`
	Nullable   bool      `json:"nullable,omitempty"`
	PrimaryKey bool      `json:"primary_key,omitempty"`
	Unique     bool      `json:"unique,omitempty"`
	Default    *string   `json:"default,omitempty"`
	MaxLength  int       `json:"max_length,omitempty"`
	Note       string    `json:"note,omitempty"`
	Choices    []Choice  `json:"choices,omitempty"`
}

// Choice is one allowed value of an enumerated field. Fields with
// choices render as DBML enum types.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Index describes an index over one or more columns of a model.
type Index struct {
	Name       string   `json:"name"`
	Fields     []string `json:"fields"`
	Unique     bool     `json:"unique,omitempty"`
	PrimaryKey bool     `json:"primary_key,omitempty"`
	Type       string   `json:"type,omitempty"` // btree or hash; btree when empty
}

// FieldKind is the enumerated scalar type tag of a field. The set is
// open: unknown kinds are carried through verbatim and render with the
// generic text type.
type FieldKind string

// Scalar field kinds.
const (
	KindAuto            FieldKind = "auto"
	KindBigAuto         FieldKind = "big_auto"
	KindChar            FieldKind = "char"
	KindText            FieldKind = "text"
	KindSlug            FieldKind = "slug"
	KindEmail           FieldKind = "email"
	KindURL             FieldKind = "url"
	KindInteger         FieldKind = "integer"
	KindBigInteger      FieldKind = "big_integer"
	KindSmallInteger    FieldKind = "small_integer"
	KindPositiveInteger FieldKind = "positive_integer"
	KindFloat           FieldKind = "float"
	KindDecimal         FieldKind = "decimal"
	KindBoolean         FieldKind = "boolean"
	KindDate            FieldKind = "date"
	KindDateTime        FieldKind = "datetime"
	KindTime            FieldKind = "time"
	KindDuration        FieldKind = "duration"
	KindUUID            FieldKind = "uuid"
	KindJSON            FieldKind = "json"
	KindBinary          FieldKind = "binary"
	KindIPAddress       FieldKind = "ip_address"
	KindFile            FieldKind = "file"
	KindImage           FieldKind = "image"
)

// Relation field kinds. A field declared with one of these produces a
// foreign key column plus a Relation descriptor.
const (
	KindForeignKey FieldKind = "foreign_key"
	KindOneToOne   FieldKind = "one_to_one"
	KindManyToMany FieldKind = "many_to_many"
)

// IsAuto reports whether the kind is an auto-incrementing key type.
func (k FieldKind) IsAuto() bool {
	return k == KindAuto || k == KindBigAuto
}

// IsRelation reports whether the kind declares a relationship rather
// than a scalar column.
func (k FieldKind) IsRelation() bool {
	return k == KindForeignKey || k == KindOneToOne || k == KindManyToMany
}

// Storage returns the kind a foreign key column referencing a primary
// key of this kind stores: auto kinds collapse to their plain integer
// counterparts, everything else is stored as-is.
func (k FieldKind) Storage() FieldKind {
	switch k {
	case KindAuto:
		return KindInteger
	case KindBigAuto:
		return KindBigInteger
	default:
		return k
	}
}

// RelationKind is the cardinality of a relationship between two models.
type RelationKind string

const (
	OneToOne   RelationKind = "one_to_one"
	ManyToOne  RelationKind = "many_to_one"
	OneToMany  RelationKind = "one_to_many"
	ManyToMany RelationKind = "many_to_many"
)

// Relation describes an association between two models. From and To are
// qualified "app.Model" labels; FromColumn and ToColumn are the
// concrete column names joined by the relation.
type Relation struct {
	Kind       RelationKind `json:"kind"`
	From       string       `json:"from"`
	FromColumn string       `json:"from_column"`
	To         string       `json:"to"`
	ToColumn   string       `json:"to_column"`

	// Through names an explicit join model for a many-to-many relation.
	// When set, no join table is synthesized for the relation.
	Through string `json:"through,omitempty"`
}

// SplitLabel splits a qualified "app.Model" label into its app and
// model parts. The model part is empty when the label names a bare app.
func SplitLabel(label string) (app, name string) {
	app, name, _ = strings.Cut(label, ".")
	return app, name
}

// DefaultTable returns the conventional table name for a model,
// "<app>_<lowercased model name>", used when a definition does not
// declare one explicitly.
func DefaultTable(app, name string) string {
	return app + "_" + strings.ToLower(name)
}
