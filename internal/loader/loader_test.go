package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/makecodes/dbmlgen/model"
	"github.com/makecodes/dbmlgen/registry"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const shopYAML = `app: shop
models:
  - name: Customer
    fields:
      - name: name
        type: char
        max_length: 120
      - name: email
        type: email
        unique: true
  - name: Order
    table: shop_orders
    note: One placed order.
    fields:
      - name: placed_at
        type: datetime
      - name: customer
        type: foreign_key
        to: shop.Customer
      - name: status
        type: char
        max_length: 16
        choices:
          - {value: open, label: Open}
          - closed
    indexes:
      - name: shop_orders_placed_idx
        fields: [placed_at]
`

func loadShop(t *testing.T) *registry.Registry {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "shop.yaml", shopYAML)

	reg := registry.New()
	if err := LoadDir(reg, dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	return reg
}

func TestLoadDir(t *testing.T) {
	reg := loadShop(t)

	if reg.Len() != 2 {
		t.Fatalf("registry has %d models, want 2", reg.Len())
	}

	customer, err := reg.Model("shop.Customer")
	if err != nil {
		t.Fatalf("Model(shop.Customer) error: %v", err)
	}
	if customer.Table != "shop_customer" {
		t.Errorf("Customer.Table = %q, want default shop_customer", customer.Table)
	}

	// An implicit auto id primary key is prepended when none is declared.
	wantFields := []string{"id", "name", "email"}
	if len(customer.Fields) != len(wantFields) {
		t.Fatalf("Customer has %d fields, want %d", len(customer.Fields), len(wantFields))
	}
	for i, name := range wantFields {
		if customer.Fields[i].Name != name {
			t.Errorf("Customer.Fields[%d].Name = %q, want %q", i, customer.Fields[i].Name, name)
		}
	}
	if pk := customer.PrimaryKey(); pk == nil || pk.Name != "id" || pk.Kind != model.KindAuto {
		t.Errorf("Customer.PrimaryKey() = %+v, want implicit auto id", pk)
	}
	if f := customer.Field("email"); f == nil || !f.Unique || f.Kind != model.KindEmail {
		t.Errorf("Customer.Field(email) = %+v, want unique email field", f)
	}
}

func TestLoadRelationField(t *testing.T) {
	reg := loadShop(t)

	order, err := reg.Model("shop.Order")
	if err != nil {
		t.Fatalf("Model(shop.Order) error: %v", err)
	}
	if order.Table != "shop_orders" {
		t.Errorf("Order.Table = %q, want shop_orders", order.Table)
	}

	// The relation field materializes as a _id column typed after the
	// target's primary key.
	fk := order.Field("customer_id")
	if fk == nil {
		t.Fatal("Order has no customer_id field")
	}
	if fk.Kind != model.KindInteger {
		t.Errorf("customer_id kind = %s, want integer (auto pk storage)", fk.Kind)
	}

	if len(order.Relations) != 1 {
		t.Fatalf("Order has %d relations, want 1", len(order.Relations))
	}
	rel := order.Relations[0]
	if rel.Kind != model.ManyToOne {
		t.Errorf("relation kind = %s, want many_to_one", rel.Kind)
	}
	if rel.From != "shop.Order" || rel.FromColumn != "customer_id" {
		t.Errorf("relation source = %s.%s, want shop.Order.customer_id", rel.From, rel.FromColumn)
	}
	if rel.To != "shop.Customer" || rel.ToColumn != "id" {
		t.Errorf("relation target = %s.%s, want shop.Customer.id", rel.To, rel.ToColumn)
	}
}

func TestLoadChoicesAndIndexes(t *testing.T) {
	reg := loadShop(t)

	order, _ := reg.Model("shop.Order")
	status := order.Field("status")
	if status == nil {
		t.Fatal("Order has no status field")
	}
	wantChoices := []model.Choice{{Value: "open", Label: "Open"}, {Value: "closed", Label: "closed"}}
	if len(status.Choices) != len(wantChoices) {
		t.Fatalf("status has %d choices, want %d", len(status.Choices), len(wantChoices))
	}
	for i, want := range wantChoices {
		if status.Choices[i] != want {
			t.Errorf("choices[%d] = %+v, want %+v", i, status.Choices[i], want)
		}
	}

	if len(order.Indexes) != 1 || order.Indexes[0].Name != "shop_orders_placed_idx" {
		t.Errorf("Order.Indexes = %+v, want one named index", order.Indexes)
	}
}

func TestLoadCrossAppRelation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "accounts.yaml", `app: accounts
models:
  - name: User
    fields:
      - name: key
        type: uuid
        pk: true
`)
	writeFile(t, dir, "blog.yaml", `app: blog
models:
  - name: Post
    fields:
      - name: author
        type: foreign_key
        to: accounts.user
`)

	reg := registry.New()
	if err := LoadDir(reg, dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	post, _ := reg.Model("blog.Post")
	rel := post.Relations[0]
	// Target labels are normalized to the declared capitalization, the
	// target column comes from its primary key.
	if rel.To != "accounts.User" {
		t.Errorf("rel.To = %q, want accounts.User", rel.To)
	}
	if rel.ToColumn != "key" {
		t.Errorf("rel.ToColumn = %q, want key", rel.ToColumn)
	}
	if fk := post.Field("author_id"); fk == nil || fk.Kind != model.KindUUID {
		t.Errorf("author_id = %+v, want uuid storage kind", fk)
	}
}

func TestLoadRelationPrimaryKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "accounts.yaml", `app: accounts
models:
  - name: User
  - name: Profile
    fields:
      - name: user
        type: one_to_one
        to: accounts.User
        pk: true
      - name: bio
        type: text
        null: true
`)

	reg := registry.New()
	if err := LoadDir(reg, dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	// A relation field declared as the primary key keeps that role on
	// the synthesized column; no implicit id is prepended.
	profile, _ := reg.Model("accounts.Profile")
	if f := profile.Field("id"); f != nil {
		t.Errorf("unexpected implicit id field: %+v", f)
	}
	pk := profile.PrimaryKey()
	if pk == nil || pk.Name != "user_id" {
		t.Fatalf("Profile.PrimaryKey() = %+v, want user_id", pk)
	}
	if !pk.Unique || pk.Kind != model.KindInteger {
		t.Errorf("user_id = %+v, want unique integer column", pk)
	}
}

func TestLoadManyToMany(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blog.yaml", `app: blog
models:
  - name: Post
    fields:
      - name: tags
        type: many_to_many
        to: blog.Tag
  - name: Tag
    fields:
      - name: name
        type: char
`)

	reg := registry.New()
	if err := LoadDir(reg, dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	post, _ := reg.Model("blog.Post")
	// No column is materialized; the join table is synthesized later.
	if f := post.Field("tags_id"); f != nil {
		t.Errorf("unexpected tags_id column: %+v", f)
	}
	if len(post.Relations) != 1 || post.Relations[0].Kind != model.ManyToMany {
		t.Fatalf("Post.Relations = %+v, want one many_to_many", post.Relations)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("LOADER_TEST_NOTE", "from the environment")

	dir := t.TempDir()
	writeFile(t, dir, "shop.yaml", `app: shop
models:
  - name: Item
    note: ${LOADER_TEST_NOTE}
    fields:
      - name: name
        type: char
`)

	reg := registry.New()
	if err := LoadDir(reg, dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	item, _ := reg.Model("shop.Item")
	if item.Note != "from the environment" {
		t.Errorf("Note = %q, want expanded env value", item.Note)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing app label", "models:\n  - name: Thing\n"},
		{"model without name", "app: shop\nmodels:\n  - table: x\n"},
		{"relation without target", "app: shop\nmodels:\n  - name: Order\n    fields:\n      - name: customer\n        type: foreign_key\n"},
		{"index without fields", "app: shop\nmodels:\n  - name: Order\n    indexes:\n      - name: broken\n"},
		{"invalid yaml", "app: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "bad.yaml", tt.content)

			reg := registry.New()
			if err := LoadDir(reg, dir); err == nil {
				t.Error("LoadDir: expected error")
			}
		})
	}
}

func TestLoadDuplicateModel(t *testing.T) {
	dir := t.TempDir()
	content := "app: shop\nmodels:\n  - name: Order\n"
	writeFile(t, dir, "a.yaml", content)
	writeFile(t, dir, "b.yaml", content)

	reg := registry.New()
	err := LoadDir(reg, dir)
	if !errors.Is(err, registry.ErrDuplicate) {
		t.Errorf("LoadDir error = %v, want ErrDuplicate", err)
	}
}

func TestLoadDirEmpty(t *testing.T) {
	reg := registry.New()
	if err := LoadDir(reg, t.TempDir()); err == nil {
		t.Error("LoadDir on empty dir: expected error")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.yaml", shopYAML)

	reg := registry.New()
	if err := LoadFiles(reg, []string{path}); err != nil {
		t.Fatalf("LoadFiles error: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("registry has %d models, want 2", reg.Len())
	}
}
