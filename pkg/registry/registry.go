package registry

import (
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/sqlgen"
)

type (
	// Database identifies a registry slot.
	Database struct {
		// Name is the key the slot is registered under.
		Name string

		// Dialect is the SQL dialect statements for this database use.
		Dialect *sqlgen.Dialect
	}

	// UpdateFunc receives the current executor of a slot and returns its
	// replacement. Returning current unchanged is a no-op. Returning an error
	// leaves the slot untouched.
	UpdateFunc func(db Database, current executor.Executor) (executor.Executor, error)

	// Registry maps databases to their currently active executor.
	Registry struct {
		mu    sync.RWMutex
		slots map[string]*slot
	}

	slot struct {
		db   Database
		exec executor.Executor
	}
)

// ErrNotRegistered is returned when no executor was set for a database.
var ErrNotRegistered = errors.New("database not registered")

// New creates an empty registry.
func New() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Get returns the active executor for the named database.
func (r *Registry) Get(name string) (executor.Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "no executor for %q", name)
	}

	return s.exec, nil
}

// Lookup returns the Database registered under name.
func (r *Registry) Lookup(name string) (Database, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[name]
	if !ok {
		return Database{}, errors.Wrapf(ErrNotRegistered, "no database %q", name)
	}

	return s.db, nil
}

// Set registers exec as the active executor for db, replacing whatever was
// there before.
func (r *Registry) Set(db Database, exec executor.Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[db.Name] = &slot{db: db, exec: exec}
}

// Update atomically replaces the active executor of the named database with
// the one returned by fn. No other Set or Update on the registry can run
// between fn observing the current executor and the replacement being stored.
func (r *Registry) Update(name string, fn UpdateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[name]
	if !ok {
		return errors.Wrapf(ErrNotRegistered, "no executor for %q", name)
	}

	next, err := fn(s.db, s.exec)
	if err != nil {
		return err
	}

	if next == nil {
		return errors.Errorf("refusing to register a nil executor for %q", name)
	}

	s.exec = next
	return nil
}

// Remove drops the named database from the registry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.slots, name)
}

// Databases returns the registered database names in sorted order.
func (r *Registry) Databases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}
