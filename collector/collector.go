// Package collector selects the models to include in one generation
// pass: it resolves filter tokens against the registry, transitively
// pulls in relation targets so no reference is left dangling, and
// synthesizes join tables for many-to-many relations.
package collector

import (
	"log/slog"
	"strings"

	"github.com/makecodes/dbmlgen/model"
	"github.com/makecodes/dbmlgen/registry"
)

// Collector walks a read-only registry. The registry is injected at
// construction and never mutated.
type Collector struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New creates a Collector over the given registry. Warnings about
// unknown filter tokens go to logger.
func New(reg *registry.Registry, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{reg: reg, logger: logger}
}

// Selection is the ordered, deduplicated set of models produced by one
// collection pass.
type Selection struct {
	Models []*model.Model

	labels map[string]bool
}

// Has reports whether a model with the given qualified label is part of
// the selection.
func (s *Selection) Has(label string) bool {
	return s.labels[strings.ToLower(label)]
}

func (s *Selection) add(m *model.Model) bool {
	key := strings.ToLower(m.Label())
	if s.labels[key] {
		return false
	}
	s.labels[key] = true
	s.Models = append(s.Models, m)
	return true
}

// Collect resolves filter tokens (app labels or app.Model labels; an
// empty list means every registered model) and returns the selection.
// Unknown tokens are reported and skipped; collection continues with
// the remaining valid entries. Models referenced by a relation from a
// selected model are pulled in transitively, so circular references
// terminate on node identity alone.
func (c *Collector) Collect(tokens []string) *Selection {
	sel := &Selection{labels: make(map[string]bool)}

	var seeds []*model.Model
	if len(tokens) == 0 {
		seeds = c.reg.Models()
	} else {
		for _, token := range tokens {
			if _, name := model.SplitLabel(token); name != "" {
				m, err := c.reg.Model(token)
				if err != nil {
					c.logger.Warn("skipping unknown filter token", "token", token, "error", err)
					continue
				}
				seeds = append(seeds, m)
				continue
			}
			app, err := c.reg.App(token)
			if err != nil {
				c.logger.Warn("skipping unknown filter token", "token", token, "error", err)
				continue
			}
			seeds = append(seeds, app.Models()...)
		}
	}

	// Breadth-first closure over relation targets. Filtered models keep
	// their registry order; pulled-in and synthesized models follow in
	// discovery order.
	queue := seeds
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if !sel.add(m) {
			continue
		}

		for i := range m.Relations {
			rel := &m.Relations[i]

			if rel.Kind == model.ManyToMany {
				queue = c.expandManyToMany(sel, m, rel, queue)
				continue
			}
			target, err := c.reg.Model(rel.To)
			if err != nil {
				// Left for the renderer to drop with a warning.
				continue
			}
			queue = append(queue, target)
		}
	}

	return sel
}

// expandManyToMany pulls in the models behind a many-to-many relation.
// With an explicit through model, the through model carries the foreign
// keys and stands on its own. Otherwise a join table is synthesized
// with the conventional id plus two foreign key columns.
func (c *Collector) expandManyToMany(sel *Selection, m *model.Model, rel *model.Relation, queue []*model.Model) []*model.Model {
	target, err := c.reg.Model(rel.To)
	if err != nil {
		c.logger.Warn("dropping many-to-many relation with unregistered target",
			"model", m.Label(), "field", rel.FromColumn, "target", rel.To)
		return queue
	}
	queue = append(queue, target)

	if rel.Through != "" {
		through, err := c.reg.Model(rel.Through)
		if err != nil {
			c.logger.Warn("many-to-many through model is not registered",
				"model", m.Label(), "field", rel.FromColumn, "through", rel.Through)
			return queue
		}
		return append(queue, through)
	}

	join := synthesizeJoinModel(m, target, rel.FromColumn)
	if !sel.Has(join.Label()) {
		queue = append(queue, join)
	}
	return queue
}

func synthesizeJoinModel(src, dst *model.Model, field string) *model.Model {
	srcCol := strings.ToLower(src.Name) + "_id"
	dstCol := strings.ToLower(dst.Name) + "_id"
	table := src.Table + "_" + field

	join := &model.Model{
		App:       src.App,
		Name:      strings.ToLower(src.Name) + "_" + field,
		Table:     table,
		Note:      "Many-to-many join table for " + src.Label() + "." + field + ".",
		Synthetic: true,
		Fields: []model.Field{
			{Name: "id", Kind: model.KindAuto, PrimaryKey: true},
			{Name: srcCol, Kind: pkStorageKind(src)},
			{Name: dstCol, Kind: pkStorageKind(dst)},
		},
		Indexes: []model.Index{
			{Name: table + "_uniq", Fields: []string{srcCol, dstCol}, Unique: true},
		},
		Relations: []model.Relation{
			{Kind: model.ManyToOne, From: src.App + "." + strings.ToLower(src.Name) + "_" + field, FromColumn: srcCol, To: src.Label(), ToColumn: pkColumn(src)},
			{Kind: model.ManyToOne, From: src.App + "." + strings.ToLower(src.Name) + "_" + field, FromColumn: dstCol, To: dst.Label(), ToColumn: pkColumn(dst)},
		},
	}
	return join
}

func pkStorageKind(m *model.Model) model.FieldKind {
	if pk := m.PrimaryKey(); pk != nil {
		return pk.Kind.Storage()
	}
	return model.KindInteger
}

func pkColumn(m *model.Model) string {
	if pk := m.PrimaryKey(); pk != nil {
		return pk.Name
	}
	return "id"
}
