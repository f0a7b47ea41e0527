// Package dbml renders model descriptors as a DBML document: one Table
// block per model, enum blocks for fields with choices, and one Ref
// line per relation. The rendering is a single stateless pass; the same
// input always produces byte-identical output.
package dbml

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/makecodes/dbmlgen/model"
)

// Options controls the shape of the generated document.
type Options struct {
	// TableNames renders database table names instead of app.Model labels.
	TableNames bool
	// GroupByApp appends one TableGroup block per app.
	GroupByApp bool
	// ColorByApp adds a stable headercolor per app, derived from the
	// app label.
	ColorByApp bool

	ProjectName  string
	ProjectNotes string
	DatabaseType string

	// Timestamp adds a "Last Updated At" line to the project notes.
	// Off by default so repeat runs over an unchanged registry are
	// byte-identical.
	Timestamp bool
	// Now overrides the clock used for the timestamp line. Nil means
	// time.Now.
	Now func() time.Time
}

// Generator renders selections of models to DBML.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Generator. Warnings about dropped relations go to logger.
func New(opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{opts: opts, logger: logger}
}

// Generate renders the given models, in order, as one DBML document.
// Columns keep declaration order; all Ref lines follow all tables.
// Relations whose endpoints are not both among the given models are
// omitted with a warning.
func (g *Generator) Generate(models []*model.Model) []byte {
	// Display names, keyed by lowercased qualified label. Doubles as
	// the membership set for the relation invariant.
	display := make(map[string]string, len(models))
	for _, m := range models {
		display[strings.ToLower(m.Label())] = g.displayName(m)
	}

	var blocks []string

	if g.opts.ProjectName != "" {
		blocks = append(blocks, g.projectBlock())
	}
	blocks = append(blocks, g.enumBlocks(models)...)
	for _, m := range models {
		blocks = append(blocks, g.tableBlock(m))
	}
	if refs := g.refLines(models, display); len(refs) > 0 {
		blocks = append(blocks, strings.Join(refs, "\n"))
	}
	if g.opts.GroupByApp {
		blocks = append(blocks, g.groupBlocks(models)...)
	}

	return []byte(strings.Join(blocks, "\n\n") + "\n")
}

func (g *Generator) displayName(m *model.Model) string {
	if g.opts.TableNames {
		return m.Table
	}
	return m.Label()
}

func (g *Generator) projectBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %q {\n", g.opts.ProjectName)
	if g.opts.DatabaseType != "" {
		fmt.Fprintf(&b, "  database_type: '%s'\n", g.opts.DatabaseType)
	}

	note := escapeNote(g.opts.ProjectNotes)
	if g.opts.Timestamp {
		now := time.Now
		if g.opts.Now != nil {
			now = g.opts.Now
		}
		ts := now().UTC().Format("01-02-2006 03:04PM") + " UTC"
		if note != "" {
			note += "\n  "
		}
		note += "Last Updated At " + ts
	}
	if note != "" {
		fmt.Fprintf(&b, "  Note: '''%s'''\n", note)
	}
	b.WriteString("}")
	return b.String()
}

// enumBlocks renders one enum block per distinct choice field, sorted
// by enum name for stable output. Lowercasing can make two fields share
// one enum name; the first declaration wins and the clash is reported.
func (g *Generator) enumBlocks(models []*model.Model) []string {
	enums := make(map[string][]model.Choice)
	owner := make(map[string]string)
	for _, m := range models {
		for i := range m.Fields {
			f := &m.Fields[i]
			if len(f.Choices) == 0 {
				continue
			}
			name := enumName(m, f)
			source := m.Label() + "." + f.Name
			if prev, seen := owner[name]; seen {
				if prev != source && !equalChoices(enums[name], f.Choices) {
					g.logger.Warn("enum name collision, keeping the first definition",
						"enum", name, "kept", prev, "dropped", source)
				}
				continue
			}
			owner[name] = source
			enums[name] = f.Choices
		}
	}
	if len(enums) == 0 {
		return nil
	}

	names := make([]string, 0, len(enums))
	for name := range enums {
		names = append(names, name)
	}
	sort.Strings(names)

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		var b strings.Builder
		fmt.Fprintf(&b, "enum %s {\n", name)
		for _, c := range enums[name] {
			fmt.Fprintf(&b, "  %q [note: '''%s''']\n", c.Value, escapeNote(c.Label))
		}
		b.WriteString("}")
		blocks = append(blocks, b.String())
	}
	return blocks
}

func equalChoices(a, b []model.Choice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// enumName is the qualified type name a choice field renders with.
func enumName(m *model.Model, f *model.Field) string {
	return strings.ToLower(m.App + "." + m.Name + "_" + f.Name)
}

func (g *Generator) tableBlock(m *model.Model) string {
	var b strings.Builder

	b.WriteString("Table " + g.displayName(m))
	if g.opts.ColorByApp {
		b.WriteString(" [headercolor: #" + appColor(m.App) + "]")
	}
	b.WriteString(" {\n")

	if m.Note != "" {
		fmt.Fprintf(&b, "  Note: '''%s'''\n", escapeNote(m.Note))
		if len(m.Fields) > 0 {
			b.WriteString("\n")
		}
	}

	for i := range m.Fields {
		g.writeColumn(&b, m, &m.Fields[i])
	}

	if len(m.Indexes) > 0 {
		b.WriteString("\n  indexes {\n")
		for _, idx := range m.Indexes {
			writeIndex(&b, idx)
		}
		b.WriteString("  }\n")
	}

	b.WriteString("}")
	return b.String()
}

func (g *Generator) writeColumn(b *strings.Builder, m *model.Model, f *model.Field) {
	typ := columnType(f)
	if len(f.Choices) > 0 {
		typ = enumName(m, f)
	}
	fmt.Fprintf(b, "  %s %s", f.Name, typ)

	var attrs []string
	if f.PrimaryKey {
		attrs = append(attrs, "pk")
	}
	if f.Kind.IsAuto() {
		attrs = append(attrs, "increment")
	}
	if f.Unique {
		attrs = append(attrs, "unique")
	}
	if f.Default != nil {
		attrs = append(attrs, fmt.Sprintf("default: `%s`", *f.Default))
	}
	if f.Note != "" {
		attrs = append(attrs, fmt.Sprintf("note: '''%s'''", escapeNote(f.Note)))
	}
	// pk implies not null; no marker needed.
	if !f.PrimaryKey {
		if f.Nullable {
			attrs = append(attrs, "null")
		} else {
			attrs = append(attrs, "not null")
		}
	}

	fmt.Fprintf(b, " [%s]\n", strings.Join(attrs, ", "))
}

func writeIndex(b *strings.Builder, idx model.Index) {
	var attrs []string
	if idx.PrimaryKey {
		attrs = append(attrs, "pk")
	}
	if idx.Unique {
		attrs = append(attrs, "unique")
	}
	if idx.Name != "" {
		attrs = append(attrs, fmt.Sprintf("name: '%s'", idx.Name))
	}
	if idx.Type != "" {
		attrs = append(attrs, "type: "+idx.Type)
	}

	fmt.Fprintf(b, "    (%s)", strings.Join(idx.Fields, ","))
	if len(attrs) > 0 {
		fmt.Fprintf(b, " [%s]", strings.Join(attrs, ", "))
	}
	b.WriteString("\n")
}

// refLines renders one Ref line per relation, using > for many-to-one,
// < for one-to-many and - for one-to-one. Many-to-many relations never
// render directly; their join tables carry the refs.
func (g *Generator) refLines(models []*model.Model, display map[string]string) []string {
	var refs []string
	for _, m := range models {
		for i := range m.Relations {
			rel := &m.Relations[i]
			if rel.Kind == model.ManyToMany {
				continue
			}

			symbol := ""
			switch rel.Kind {
			case model.ManyToOne:
				symbol = ">"
			case model.OneToMany:
				symbol = "<"
			case model.OneToOne:
				symbol = "-"
			default:
				g.logger.Warn("skipping relation with unknown kind", "from", rel.From, "kind", string(rel.Kind))
				continue
			}

			from, okFrom := display[strings.ToLower(rel.From)]
			to, okTo := display[strings.ToLower(rel.To)]
			if !okFrom || !okTo {
				g.logger.Warn("dropping relation to a model outside the generated set",
					"from", rel.From, "column", rel.FromColumn, "to", rel.To)
				continue
			}

			refs = append(refs, fmt.Sprintf("Ref: %s.%s %s %s.%s", from, rel.FromColumn, symbol, to, rel.ToColumn))
		}
	}
	return refs
}

// groupBlocks renders one TableGroup per app, apps sorted by label,
// tables in emission order.
func (g *Generator) groupBlocks(models []*model.Model) []string {
	byApp := make(map[string][]string)
	var apps []string
	for _, m := range models {
		if _, seen := byApp[m.App]; !seen {
			apps = append(apps, m.App)
		}
		byApp[m.App] = append(byApp[m.App], g.displayName(m))
	}
	sort.Strings(apps)

	blocks := make([]string, 0, len(apps))
	for _, app := range apps {
		var b strings.Builder
		fmt.Fprintf(&b, "TableGroup %s {\n", app)
		for _, name := range byApp[app] {
			b.WriteString("  " + name + "\n")
		}
		b.WriteString("}")
		blocks = append(blocks, b.String())
	}
	return blocks
}

// appColor derives a stable six-digit hex color from an app label.
func appColor(app string) string {
	sum := sha256.Sum256([]byte(app))
	return hex.EncodeToString(sum[:])[:6]
}

// escapeNote makes a note safe inside a DBML triple-quoted string by
// replacing single quotes with double quotes.
func escapeNote(note string) string {
	return strings.ReplaceAll(note, "'", `"`)
}
