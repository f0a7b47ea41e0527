// Package loader reads app definition files (YAML, one file per app)
// and populates a model registry from them. Environment variables
// referenced as ${VAR_NAME} in a file are expanded before parsing.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/makecodes/dbmlgen/model"
	"github.com/makecodes/dbmlgen/registry"
)

// appFile is the top-level shape of one definition file.
type appFile struct {
	App    string     `yaml:"app"`
	Models []modelDef `yaml:"models"`
}

// modelDef declares one model. Field order in the file is the column
// order in the output.
type modelDef struct {
	Name    string     `yaml:"name"`
	Table   string     `yaml:"table"`
	Note    string     `yaml:"note"`
	Fields  []fieldDef `yaml:"fields"`
	Indexes []indexDef `yaml:"indexes"`
}

// fieldDef declares one field. Scalar fields carry a kind in Type;
// relation fields use the relation kinds (foreign_key, one_to_one,
// many_to_many) and name their target in To.
type fieldDef struct {
	Name      string      `yaml:"name"`
	Type      string      `yaml:"type"`
	PK        bool        `yaml:"pk"`
	Null      bool        `yaml:"null"`
	Unique    bool        `yaml:"unique"`
	Default   *string     `yaml:"default"`
	MaxLength int         `yaml:"max_length"`
	Note      string      `yaml:"note"`
	Choices   []choiceDef `yaml:"choices"`
	To        string      `yaml:"to"`
	Through   string      `yaml:"through"`
}

type indexDef struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique"`
	PK     bool     `yaml:"pk"`
	Type   string   `yaml:"type"`
}

// choiceDef is one enum value, either a {value, label} mapping or a
// bare scalar used as both.
type choiceDef struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

func (c *choiceDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Value = node.Value
		c.Label = node.Value
		return nil
	}
	type raw choiceDef
	return node.Decode((*raw)(c))
}

// LoadDir loads every *.yaml / *.yml file under dir into the registry,
// in lexical filename order, then resolves foreign key column types
// across apps. A malformed file aborts the load: a partially loaded
// registry would silently drop relations.
func LoadDir(reg *registry.Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read models dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no model definition files in %s", dir)
	}

	for _, path := range files {
		if err := loadFile(reg, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	resolveRelations(reg)
	return nil
}

// LoadFiles loads the given definition files in order, then resolves
// foreign key column types.
func LoadFiles(reg *registry.Registry, paths []string) error {
	for _, path := range paths {
		if err := loadFile(reg, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	resolveRelations(reg)
	return nil
}

func loadFile(reg *registry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read definition file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	var file appFile
	if err := yaml.Unmarshal([]byte(content), &file); err != nil {
		return fmt.Errorf("parse definition file: %w", err)
	}

	if file.App == "" {
		return fmt.Errorf("missing app label")
	}

	for _, def := range file.Models {
		m, err := buildModel(file.App, def)
		if err != nil {
			return err
		}
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func buildModel(app string, def modelDef) (*model.Model, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("app %q: model without a name", app)
	}

	m := &model.Model{
		App:   app,
		Name:  def.Name,
		Table: def.Table,
		Note:  def.Note,
	}
	if m.Table == "" {
		m.Table = model.DefaultTable(app, def.Name)
	}

	for _, fd := range def.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("model %q: field without a name", m.Label())
		}
		kind := model.FieldKind(fd.Type)
		if kind.IsRelation() {
			if err := addRelationField(m, fd, kind); err != nil {
				return nil, err
			}
			continue
		}
		m.Fields = append(m.Fields, model.Field{
			Name:       fd.Name,
			Kind:       kind,
			Nullable:   fd.Null,
			PrimaryKey: fd.PK,
			Unique:     fd.Unique,
			Default:    fd.Default,
			MaxLength:  fd.MaxLength,
			Note:       fd.Note,
			Choices:    buildChoices(fd.Choices),
		})
	}

	// Models without an explicit primary key get an implicit auto id,
	// matching the host framework convention.
	if m.PrimaryKey() == nil {
		m.Fields = append([]model.Field{{Name: "id", Kind: model.KindAuto, PrimaryKey: true}}, m.Fields...)
	}

	for _, id := range def.Indexes {
		if len(id.Fields) == 0 {
			return nil, fmt.Errorf("model %q: index %q without fields", m.Label(), id.Name)
		}
		m.Indexes = append(m.Indexes, model.Index{
			Name:       id.Name,
			Fields:     id.Fields,
			Unique:     id.Unique,
			PrimaryKey: id.PK,
			Type:       id.Type,
		})
	}

	return m, nil
}

// addRelationField materializes a relation-typed field definition as a
// concrete foreign key column (for foreign_key and one_to_one) plus a
// Relation descriptor. The column name carries the conventional _id
// suffix. Many-to-many fields produce only the descriptor; their join
// table is synthesized at collection time.
func addRelationField(m *model.Model, fd fieldDef, kind model.FieldKind) error {
	if fd.To == "" {
		return fmt.Errorf("model %q: relation field %q requires a target", m.Label(), fd.Name)
	}

	switch kind {
	case model.KindForeignKey, model.KindOneToOne:
		column := fd.Name + "_id"
		m.Fields = append(m.Fields, model.Field{
			Name:       column,
			Kind:       kind, // narrowed to the target's pk kind in resolveRelations
			Nullable:   fd.Null,
			PrimaryKey: fd.PK,
			Unique:     fd.Unique || kind == model.KindOneToOne,
			Note:       fd.Note,
		})

		relKind := model.ManyToOne
		if kind == model.KindOneToOne {
			relKind = model.OneToOne
		}
		m.Relations = append(m.Relations, model.Relation{
			Kind:       relKind,
			From:       m.Label(),
			FromColumn: column,
			To:         fd.To,
		})
	case model.KindManyToMany:
		m.Relations = append(m.Relations, model.Relation{
			Kind:       model.ManyToMany,
			From:       m.Label(),
			FromColumn: fd.Name,
			To:         fd.To,
			Through:    fd.Through,
		})
	}
	return nil
}

func buildChoices(defs []choiceDef) []model.Choice {
	if len(defs) == 0 {
		return nil
	}
	choices := make([]model.Choice, 0, len(defs))
	for _, d := range defs {
		label := d.Label
		if label == "" {
			label = d.Value
		}
		choices = append(choices, model.Choice{Value: d.Value, Label: label})
	}
	return choices
}

// resolveRelations runs after every file is loaded, once the registry
// can answer cross-app lookups. It fills in each relation's target
// column from the target model's primary key and narrows foreign key
// column kinds to the storage type of that key. Targets that are not
// registered are left as-is; the generator drops those relations with
// a warning.
func resolveRelations(reg *registry.Registry) {
	for _, m := range reg.Models() {
		for i := range m.Relations {
			rel := &m.Relations[i]
			target, err := reg.Model(rel.To)
			if err != nil {
				if rel.ToColumn == "" {
					rel.ToColumn = "id"
				}
				continue
			}
			// Normalize the label to the declared capitalization.
			rel.To = target.Label()

			pk := target.PrimaryKey()
			if pk == nil {
				if rel.ToColumn == "" {
					rel.ToColumn = "id"
				}
				continue
			}
			if rel.ToColumn == "" {
				rel.ToColumn = pk.Name
			}

			if f := m.Field(rel.FromColumn); f != nil && f.Kind.IsRelation() {
				f.Kind = pk.Kind.Storage()
			}
		}
	}
}
