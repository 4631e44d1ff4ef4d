// Package tool holds the table of pinned external executables and the
// provisioner that makes them runnable for the current environment.
package tool

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kingrea/invoker/internal/env"
)

// Platform identifies an operating system and architecture pair, formatted
// as GOOS/GOARCH.
type Platform string

const (
	LinuxAMD64   Platform = "linux/amd64"
	LinuxARM64   Platform = "linux/arm64"
	DarwinAMD64  Platform = "darwin/amd64"
	DarwinARM64  Platform = "darwin/arm64"
	WindowsAMD64 Platform = "windows/amd64"
)

// CurrentPlatform returns the platform this binary was built for.
func CurrentPlatform() Platform {
	return Platform(runtime.GOOS + "/" + runtime.GOARCH)
}

// Link is a download descriptor: an archive URL and the location of the
// binary inside the extracted archive.
type Link struct {
	URL           string
	ExtractedPath string
}

// Tool is a pinned external executable.
type Tool struct {
	Name    string
	Version string
	Tags    []env.Tag
	// Path is how the tool is invoked. Tools with links default to a path
	// under the registry's bin directory.
	Path string
	// VersionArgs print the tool version; defaults to --version.
	VersionArgs []string
	Links       map[Platform]Link
}

// RequiredIn reports whether the tool is needed in the environment.
func (t Tool) RequiredIn(e env.Environment) bool {
	return e.Requires(t.Tags)
}

// LinkFor returns the download descriptor for the platform, if any.
func (t Tool) LinkFor(p Platform) (Link, bool) {
	if len(t.Links) == 0 {
		return Link{}, false
	}
	link, ok := t.Links[p]
	return link, ok
}

func (t Tool) versionArgs() []string {
	if len(t.VersionArgs) == 0 {
		return []string{"--version"}
	}
	return t.VersionArgs
}

func (t Tool) validate() error {
	if t.Name == "" {
		return fmt.Errorf("tool: name is required")
	}
	if t.Version == "" {
		return fmt.Errorf("tool: version is required for %s", t.Name)
	}
	if t.Path == "" {
		return fmt.Errorf("tool: path is required for %s", t.Name)
	}
	for platform, link := range t.Links {
		if link.URL == "" || link.ExtractedPath == "" {
			return fmt.Errorf("tool: %s link for %s needs url and extracted path", t.Name, platform)
		}
	}
	return nil
}

// Builtins mirrors the tools the project has always pinned.
var Builtins = []Tool{
	{
		Name:        "go",
		Version:     "1.19",
		Tags:        []env.Tag{env.TagAlways},
		Path:        "go",
		VersionArgs: []string{"version"},
	},
	{
		Name:    "git",
		Version: "2.34.1",
		Tags:    []env.Tag{env.TagAlways},
		Path:    "git",
	},
	{
		Name:    "curl",
		Version: "7.81.0",
		Tags:    []env.Tag{env.TagAlways},
		Path:    "curl",
	},
	{
		Name:    "gotestsum",
		Version: "1.8.2",
		Tags:    []env.Tag{env.TagDev, env.TagCIInternal},
		Links: map[Platform]Link{
			LinuxAMD64: {
				URL:           "https://github.com/gotestyourself/gotestsum/releases/download/v1.8.2/gotestsum_1.8.2_linux_amd64.tar.gz",
				ExtractedPath: "gotestsum",
			},
		},
	},
	{
		Name:    "golangci-lint",
		Version: "1.48.0",
		Tags:    []env.Tag{env.TagDev, env.TagCIInternal},
		Links: map[Platform]Link{
			LinuxAMD64: {
				URL:           "https://github.com/golangci/golangci-lint/releases/download/v1.48.0/golangci-lint-1.48.0-linux-amd64.tar.gz",
				ExtractedPath: "golangci-lint-1.48.0-linux-amd64/golangci-lint",
			},
		},
	},
}

// Well-known tool names used by the tasks.
const (
	Go   = "go"
	Git  = "git"
	Curl = "curl"
	Test = "gotestsum"
	Lint = "golangci-lint"
)

// Registry is an ordered, read-only table of tools.
type Registry struct {
	order  []string
	byName map[string]Tool
	binDir string
	// binPaths marks tools whose Path was filled in under binDir.
	binPaths map[string]bool
}

// NewRegistry validates tools and fills in default paths under binDir.
func NewRegistry(binDir string, tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(tools)), binDir: binDir, binPaths: map[string]bool{}}
	for _, t := range tools {
		t = t.clone()
		t.Name = strings.TrimSpace(t.Name)
		if t.Path == "" && len(t.Links) > 0 {
			t.Path = filepath.Join(binDir, t.Name)
			r.binPaths[t.Name] = true
		}
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, fmt.Errorf("tool: %s declared twice", t.Name)
		}
		r.byName[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the tools in declaration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of declared tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// InvocationPath returns how t is run on platform p. A tool whose bin path
// was defaulted but that has no link for p is never installed there, so it
// is looked up by bare name on PATH instead.
func (r *Registry) InvocationPath(t Tool, p Platform) string {
	if _, ok := t.LinkFor(p); ok || !r.binPaths[t.Name] {
		return t.Path
	}
	return t.Name
}

// BinDir is where provisioned tools are linked.
func (r *Registry) BinDir() string {
	return r.binDir
}

// Merge overlays overrides onto base by name. Non-empty fields of an override
// replace the base ones; unknown names are appended.
func Merge(base []Tool, overrides ...Tool) []Tool {
	out := make([]Tool, 0, len(base)+len(overrides))
	index := map[string]int{}
	for _, t := range base {
		index[t.Name] = len(out)
		out = append(out, t.clone())
	}
	for _, o := range overrides {
		i, ok := index[o.Name]
		if !ok {
			index[o.Name] = len(out)
			out = append(out, o.clone())
			continue
		}
		merged := out[i]
		if o.Version != "" {
			merged.Version = o.Version
		}
		if len(o.Tags) > 0 {
			merged.Tags = append([]env.Tag(nil), o.Tags...)
		}
		if o.Path != "" {
			merged.Path = o.Path
		}
		if len(o.VersionArgs) > 0 {
			merged.VersionArgs = append([]string(nil), o.VersionArgs...)
		}
		if len(o.Links) > 0 {
			merged.Links = map[Platform]Link{}
			for p, l := range o.Links {
				merged.Links[p] = l
			}
		}
		out[i] = merged
	}
	return out
}

func (t Tool) clone() Tool {
	c := t
	c.Tags = append([]env.Tag(nil), t.Tags...)
	c.VersionArgs = append([]string(nil), t.VersionArgs...)
	if t.Links != nil {
		c.Links = make(map[Platform]Link, len(t.Links))
		for p, l := range t.Links {
			c.Links[p] = l
		}
	}
	return c
}
