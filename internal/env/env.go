// Package env declares the deployment environments invoker knows about and the
// capability tags used to match tools against them. Exactly one environment is
// current for a process; it is selected at startup and handed to every task as
// a plain value.
package env

import (
	"fmt"
	"strings"
)

// Tag is a capability label shared by environments and tools.
type Tag string

const (
	// TagAlways marks a tool that every environment requires.
	TagAlways     Tag = "always"
	TagDev        Tag = "dev-only"
	TagCIInternal Tag = "ci-internal"
	TagCIPublish  Tag = "ci-publish"
	TagProduction Tag = "production"
)

// Environment is a named deployment context.
type Environment struct {
	Name string
	Tags []Tag
}

// Has reports whether the environment carries the tag.
func (e Environment) Has(tag Tag) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Requires reports whether something labelled with tags is needed in this
// environment. TagAlways matches every environment.
func (e Environment) Requires(tags []Tag) bool {
	for _, tag := range tags {
		if tag == TagAlways || e.Has(tag) {
			return true
		}
	}
	return false
}

func (e Environment) String() string {
	return e.Name
}

var (
	Dev  = Environment{Name: "dev", Tags: []Tag{TagDev}}
	CI   = Environment{Name: "ci", Tags: []Tag{TagCIInternal, TagCIPublish}}
	Prod = Environment{Name: "prod", Tags: []Tag{TagProduction}}
)

// Registry is an ordered, read-only table of environments.
type Registry struct {
	order    []string
	byName   map[string]Environment
	fallback string
}

// NewRegistry builds a registry from envs. defaultName must be one of them.
func NewRegistry(defaultName string, envs ...Environment) (*Registry, error) {
	r := &Registry{byName: make(map[string]Environment, len(envs))}
	for _, e := range envs {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("env: name is required")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("env: %s declared twice", name)
		}
		e.Name = name
		e.Tags = append([]Tag(nil), e.Tags...)
		r.byName[name] = e
		r.order = append(r.order, name)
	}
	if _, ok := r.byName[defaultName]; !ok {
		return nil, fmt.Errorf("env: default %q is not declared", defaultName)
	}
	r.fallback = defaultName
	return r, nil
}

// Builtin returns the dev/ci/prod table with dev as default.
func Builtin() *Registry {
	r, err := NewRegistry(Dev.Name, Dev, CI, Prod)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the environment with the given name.
func (r *Registry) Lookup(name string) (Environment, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Default returns the designated default environment.
func (r *Registry) Default() Environment {
	return r.byName[r.fallback]
}

// Names returns the environment names in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Select resolves the current environment. An empty name selects the default.
func (r *Registry) Select(name string) (Environment, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return r.Default(), nil
	}
	e, ok := r.byName[name]
	if !ok {
		return Environment{}, fmt.Errorf("env: unknown environment %q (valid: %s)", name, strings.Join(r.order, ", "))
	}
	return e, nil
}
