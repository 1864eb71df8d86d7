// Package registry holds the ordered set of managed apps.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/neustart-io/neustart/internal/daemon/app"
	"github.com/neustart-io/neustart/internal/models"
)

var (
	// ErrNotFound is returned when no app has the requested ID.
	ErrNotFound = errors.New("app not found")
	// ErrConflict is returned when an ID is already taken.
	ErrConflict = errors.New("app ID already exists")
	// ErrInvalidID is returned for an empty or whitespace-only ID.
	ErrInvalidID = errors.New("app ID must not be blank")
)

// Store persists app definitions. Load fills policy fields a record lacks
// from defaults.
type Store interface {
	Load(defaults models.RestartPolicy) ([]models.AppDefinition, error)
	Save([]models.AppDefinition) error
}

// Registry indexes apps by ID and remembers insertion order.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*app.App
	order []*app.App
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]*app.App)}
}

// Get returns the app with the given ID.
func (r *Registry) Get(id string) (*app.App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// List returns the apps in insertion order.
func (r *Registry) List() []*app.App {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*app.App, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of apps.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Add appends an app.
func (r *Registry) Add(a *app.App) error {
	id := a.ID()
	if blank(id) {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrConflict, id)
	}
	r.byID[id] = a
	r.order = append(r.order, a)
	return nil
}

// Rename changes an app's ID. On error the registry is unchanged.
func (r *Registry) Rename(oldID, newID string) error {
	if blank(newID) {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[oldID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldID)
	}
	if oldID == newID {
		return nil
	}
	if _, exists := r.byID[newID]; exists {
		return fmt.Errorf("%w: %s", ErrConflict, newID)
	}

	delete(r.byID, oldID)
	r.byID[newID] = a
	a.SetID(newID)
	return nil
}

func blank(id string) bool {
	return strings.TrimSpace(id) == ""
}

// Remove drops an app and returns it.
func (r *Registry) Remove(id string) (*app.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.byID, id)
	for i, entry := range r.order {
		if entry == a {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return a, nil
}

// Definitions returns the persisted form of every app, in order.
func (r *Registry) Definitions() []models.AppDefinition {
	apps := r.List()
	defs := make([]models.AppDefinition, 0, len(apps))
	for _, a := range apps {
		defs = append(defs, a.Definition())
	}
	return defs
}
