// Package registry holds the model descriptors of a host application,
// grouped by app label, in declaration order. A Registry is built once
// (programmatically or by the loader) and is read-only during
// generation, so no locking is involved.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/makecodes/dbmlgen/model"
)

// ErrUnknownApp is returned when a lookup names an app that was never registered.
var ErrUnknownApp = errors.New("unknown app")

// ErrUnknownModel is returned when a lookup names a model that does not exist.
var ErrUnknownModel = errors.New("unknown model")

// ErrDuplicate is returned when a model is registered under an already-taken label.
var ErrDuplicate = errors.New("duplicate model")

// Registry is an ordered collection of apps and their models.
type Registry struct {
	apps   []*App
	byName map[string]*App
}

// App groups the models declared by one application, in declaration order.
type App struct {
	Label string

	models []*model.Model
	index  map[string]*model.Model // lowercased model name -> model
}

// Models returns the app's models in declaration order. The returned
// slice must not be modified.
func (a *App) Models() []*model.Model {
	return a.models
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*App)}
}

// Register adds a model to the registry, creating its app on first
// sight. Registering a second model under the same "app.Name" label
// fails with ErrDuplicate.
func (r *Registry) Register(m *model.Model) error {
	if m.App == "" || m.Name == "" {
		return fmt.Errorf("register %q: app and name are required", m.Label())
	}
	app, ok := r.byName[m.App]
	if !ok {
		app = &App{Label: m.App, index: make(map[string]*model.Model)}
		r.apps = append(r.apps, app)
		r.byName[m.App] = app
	}

	key := strings.ToLower(m.Name)
	if _, exists := app.index[key]; exists {
		return fmt.Errorf("register %q: %w", m.Label(), ErrDuplicate)
	}
	app.models = append(app.models, m)
	app.index[key] = m
	return nil
}

// App returns the app with the given label.
func (r *Registry) App(label string) (*App, error) {
	app, ok := r.byName[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApp, label)
	}
	return app, nil
}

// Model resolves a qualified "app.Model" label. The model part is
// matched case-insensitively, mirroring how host frameworks resolve
// model names.
func (r *Registry) Model(label string) (*model.Model, error) {
	appLabel, name := model.SplitLabel(label)
	if name == "" {
		return nil, fmt.Errorf("%w: %q is not an app.Model label", ErrUnknownModel, label)
	}
	app, err := r.App(appLabel)
	if err != nil {
		return nil, err
	}
	m, ok := app.index[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, label)
	}
	return m, nil
}

// Apps returns all apps in registration order.
func (r *Registry) Apps() []*App {
	return r.apps
}

// Models returns every registered model, apps in registration order and
// models in declaration order within each app.
func (r *Registry) Models() []*model.Model {
	var all []*model.Model
	for _, app := range r.apps {
		all = append(all, app.models...)
	}
	return all
}

// Len returns the total number of registered models.
func (r *Registry) Len() int {
	n := 0
	for _, app := range r.apps {
		n += len(app.models)
	}
	return n
}
