package schema

import (
	"context"
	"fmt"

	"github.com/jacentio/lattice/backend"
)

// Registry holds the table schemas known to one call chain. It is ephemeral:
// construct one per invocation and attach or register every table the chain
// touches. A Registry is not safe for concurrent mutation; the store's
// coarse lock serializes all access in practice.
type Registry struct {
	tables map[string]*Table
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// normalize validates field definitions, rejecting any type outside the
// closed set.
func normalize(t Table) (*Table, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("lattice: table name must not be empty")
	}
	if t.History == "" {
		t.History = t.Name + "_HISTORY"
	}
	for _, f := range t.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("lattice: table %s has a field with no name", t.Name)
		}
		if !f.Type.valid() {
			return nil, fmt.Errorf("%w: table %s field %s declares %q",
				ErrUnknownFieldType, t.Name, f.Name, f.Type)
		}
	}
	return &t, nil
}

// RegisterNew normalizes the schema, writes header rows to the main and
// history sheets, and registers the table. The sheets are created if absent.
func (r *Registry) RegisterNew(ctx context.Context, grid backend.Grid, t Table) (*Table, error) {
	norm, err := normalize(t)
	if err != nil {
		return nil, err
	}
	if _, ok := r.tables[norm.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, norm.Name)
	}

	if err := grid.EnsureSheet(ctx, norm.Name); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", norm.Name, err)
	}
	if err := grid.Append(ctx, norm.Name, norm.Header()); err != nil {
		return nil, fmt.Errorf("write header %s: %w", norm.Name, err)
	}
	if err := grid.EnsureSheet(ctx, norm.History); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", norm.History, err)
	}
	if err := grid.Append(ctx, norm.History, norm.HistoryHeader()); err != nil {
		return nil, fmt.Errorf("write header %s: %w", norm.History, err)
	}

	r.tables[norm.Name] = norm
	return norm, nil
}

// Attach normalizes and registers a schema for an existing table without
// touching storage. Attaching an already-registered name fails.
func (r *Registry) Attach(t Table) (*Table, error) {
	norm, err := normalize(t)
	if err != nil {
		return nil, err
	}
	if _, ok := r.tables[norm.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, norm.Name)
	}
	r.tables[norm.Name] = norm
	return norm, nil
}

// Table returns the registered schema for name.
func (r *Registry) Table(name string) (*Table, error) {
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotRegistered, name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tables[name]
	return ok
}

// Names returns the registered table names in unspecified order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}
