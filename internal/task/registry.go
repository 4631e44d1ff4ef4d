package task

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Config carries task arguments parsed from the command line (opaque to the
// registry).
type Config map[string]any

// String returns the value for key as a string.
func (c Config) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the value for key as a bool. Strings are parsed with
// strconv.ParseBool; anything unparsable is false.
func (c Config) Bool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Factory constructs a task with the provided configuration.
type Factory func(Config) (Task, error)

// Registry maps task names to factories. It is filled once at startup and
// read by a single goroutine.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a task factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("task: id is required")
	}
	if factory == nil {
		return fmt.Errorf("task: factory is required for %s", id)
	}
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("task: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs the task registered under id. The task must describe
// itself under the same id so help output and log lines agree with what the
// operator typed.
func (r *Registry) Resolve(id string, cfg Config) (Task, error) {
	factory, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("task: unknown task %s (available: %s)", id, strings.Join(r.IDs(), ", "))
	}
	t, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("task: %s: %w", id, err)
	}
	info := t.Info()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if info.ID != id {
		return nil, fmt.Errorf("task: %s registered a task describing itself as %s", id, info.ID)
	}
	return t, nil
}

// Infos resolves every task with an empty config and returns their
// descriptions in ID order.
func (r *Registry) Infos() ([]Info, error) {
	ids := r.IDs()
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		t, err := r.Resolve(id, Config{})
		if err != nil {
			return nil, err
		}
		infos = append(infos, t.Info())
	}
	return infos, nil
}

// MissingTools returns, per task, the tools it invokes that known does not
// declare. A non-empty result means the tool table and the task set disagree.
func (r *Registry) MissingTools(known func(name string) bool) (map[string][]string, error) {
	infos, err := r.Infos()
	if err != nil {
		return nil, err
	}
	missing := map[string][]string{}
	for _, info := range infos {
		for _, name := range info.Tools {
			if !known(name) {
				missing[info.ID] = append(missing[info.ID], name)
			}
		}
	}
	return missing, nil
}

// IDs returns a sorted list of registered task identifiers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
