// Command example builds a small library schema programmatically and
// prints the generated DBML. It shows how a host application can feed
// its own model registry into the generator without definition files.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/makecodes/dbmlgen/collector"
	"github.com/makecodes/dbmlgen/dbml"
	"github.com/makecodes/dbmlgen/model"
	"github.com/makecodes/dbmlgen/registry"
)

func main() {
	reg := registry.New()

	author := &model.Model{
		App:   "library",
		Name:  "Author",
		Table: "library_author",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindAuto, PrimaryKey: true},
			{Name: "name", Kind: model.KindChar, MaxLength: 255},
		},
	}

	book := &model.Model{
		App:   "library",
		Name:  "Book",
		Table: "library_book",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindAuto, PrimaryKey: true},
			{Name: "title", Kind: model.KindChar, MaxLength: 255},
			{Name: "published", Kind: model.KindDate, Nullable: true},
			{Name: "author_id", Kind: model.KindInteger},
		},
		Relations: []model.Relation{
			{Kind: model.ManyToOne, From: "library.Book", FromColumn: "author_id", To: "library.Author", ToColumn: "id"},
			{Kind: model.ManyToMany, From: "library.Book", FromColumn: "genres", To: "library.Genre"},
		},
	}

	genre := &model.Model{
		App:   "library",
		Name:  "Genre",
		Table: "library_genre",
		Fields: []model.Field{
			{Name: "id", Kind: model.KindAuto, PrimaryKey: true},
			{Name: "name", Kind: model.KindChar, MaxLength: 64, Unique: true},
		},
	}

	for _, m := range []*model.Model{author, book, genre} {
		if err := reg.Register(m); err != nil {
			log.Fatalf("register %s: %v", m.Label(), err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sel := collector.New(reg, logger).Collect(nil)

	opts := dbml.Options{
		ProjectName:  "library",
		DatabaseType: "PostgreSQL",
	}
	out := dbml.New(opts, logger).Generate(sel.Models)

	fmt.Print(string(out))
}
