// internal/config/config.go
//
// This package handles configuration and the .invoker directory structure.
// Every project that uses invoker gets a .invoker/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/tool"
)

const (
	// InvokerDir is the name of the directory we create in each project
	InvokerDir = ".invoker"

	// EnvVar selects the environment when no flag is given.
	EnvVar = "INVOKER_ENV"

	defaultLintConfig      = ".golangci.yaml"
	defaultCoverageProfile = "coverage.out"
)

const defaultProjectConfigYAML = `# invoker project configuration
version: 1

# Module path published by "invoker publish". Read from go.mod when empty.
module: ""

lint:
  config: .golangci.yaml

coverage:
  profile: coverage.out

# Where downloaded tool archives are unpacked. Defaults to the user cache dir.
# tools_dir: .invoker/tools

# Tool overrides. Entries replace built-in fields by name or add new tools.
# tools:
#   - name: gotestsum
#     version: 1.8.2
#     tags: [dev-only, ci-internal]
#     links:
#       linux/amd64:
#         url: https://github.com/gotestyourself/gotestsum/releases/download/v1.8.2/gotestsum_1.8.2_linux_amd64.tar.gz
#         path: gotestsum
`

// LintConfig configures the lint and format tasks.
type LintConfig struct {
	Config string `yaml:"config"`
}

// CoverageConfig configures the coverage profile written by `test -show`.
type CoverageConfig struct {
	Profile string `yaml:"profile"`
}

// LinkSpec is the YAML shape of a tool download descriptor.
type LinkSpec struct {
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// ToolOverride declares or overrides one tool.
type ToolOverride struct {
	Name        string              `yaml:"name"`
	Version     string              `yaml:"version,omitempty"`
	Tags        []string            `yaml:"tags,omitempty"`
	Path        string              `yaml:"path,omitempty"`
	VersionArgs []string            `yaml:"version_args,omitempty"`
	Links       map[string]LinkSpec `yaml:"links,omitempty"`
}

// ProjectConfig models .invoker/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Module   string         `yaml:"module"`
	Lint     LintConfig     `yaml:"lint"`
	Coverage CoverageConfig `yaml:"coverage"`
	ToolsDir string         `yaml:"tools_dir,omitempty"`
	Tools    []ToolOverride `yaml:"tools,omitempty"`
}

// Config holds the runtime configuration for invoker.
type Config struct {
	// ProjectDir is the directory invoker operates on
	ProjectDir string

	// InvokerProjectDir is ProjectDir/.invoker
	InvokerProjectDir string

	Project ProjectConfig
}

// InitInvokerDir creates the .invoker directory structure in the given project
// directory.
//
// Structure created:
// .invoker/
// ├── bin/          <- symlinks to provisioned tools
// ├── logs/         <- invoker.log
// └── config.yaml
func InitInvokerDir(projectDir string) error {
	invokerDir := filepath.Join(projectDir, InvokerDir)
	dirs := []string{
		filepath.Join(invokerDir, "bin"),
		filepath.Join(invokerDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(invokerDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		InvokerProjectDir: filepath.Join(projectDir, InvokerDir),
		Project:           defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv reads ProjectDir/.env into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(projectDir string) error {
	path := filepath.Join(projectDir, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// SelectEnvironment picks the current environment: the explicit name wins,
// then $INVOKER_ENV, then the registry default.
func SelectEnvironment(reg *env.Registry, explicit string) (env.Environment, error) {
	name := strings.TrimSpace(explicit)
	if name == "" {
		name = os.Getenv(EnvVar)
	}
	return reg.Select(name)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.InvokerProjectDir, "logs")
}

// BinDir returns the directory provisioned tools are linked into
func (c *Config) BinDir() string {
	return filepath.Join(c.InvokerProjectDir, "bin")
}

// ToolsDir returns where tool archives are extracted.
func (c *Config) ToolsDir() string {
	if c.Project.ToolsDir != "" {
		return c.Project.ToolsDir
	}
	return filepath.Join(xdg.CacheHome, "invoker", "tools")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.InvokerProjectDir, "config.yaml")
}

// LintConfigPath returns the linter configuration file, relative to the
// project directory.
func (c *Config) LintConfigPath() string {
	return c.Project.Lint.Config
}

// CoverageProfile returns the coverage profile file name.
func (c *Config) CoverageProfile() string {
	return c.Project.Coverage.Profile
}

// ModulePath returns the configured module path, falling back to the module
// directive of ProjectDir/go.mod.
func (c *Config) ModulePath() (string, error) {
	if c.Project.Module != "" {
		return c.Project.Module, nil
	}
	path := filepath.Join(c.ProjectDir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: read %s: %w", path, err)
	}
	mod := modfile.ModulePath(data)
	if mod == "" {
		return "", fmt.Errorf("config: %s has no module directive", path)
	}
	return mod, nil
}

// Tools returns the built-in tool table with project overrides applied.
func (c *Config) Tools() []tool.Tool {
	overrides := make([]tool.Tool, 0, len(c.Project.Tools))
	for _, o := range c.Project.Tools {
		overrides = append(overrides, o.toTool())
	}
	return tool.Merge(tool.Builtins, overrides...)
}

// ToolRegistry builds the tool table for this project.
func (c *Config) ToolRegistry() (*tool.Registry, error) {
	reg, err := tool.NewRegistry(c.BinDir(), c.Tools()...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return reg, nil
}

func (o ToolOverride) toTool() tool.Tool {
	t := tool.Tool{
		Name:        o.Name,
		Version:     o.Version,
		Path:        o.Path,
		VersionArgs: o.VersionArgs,
	}
	for _, tag := range o.Tags {
		t.Tags = append(t.Tags, env.Tag(tag))
	}
	if len(o.Links) > 0 {
		t.Links = make(map[tool.Platform]tool.Link, len(o.Links))
		for platform, link := range o.Links {
			t.Links[tool.Platform(platform)] = tool.Link{URL: link.URL, ExtractedPath: link.Path}
		}
	}
	return t
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Lint.Config) == "" {
		pc.Lint.Config = defaultLintConfig
	}
	if strings.TrimSpace(pc.Coverage.Profile) == "" {
		pc.Coverage.Profile = defaultCoverageProfile
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Module = strings.TrimSpace(pc.Module)
	pc.Lint.Config = strings.TrimSpace(pc.Lint.Config)
	pc.Coverage.Profile = strings.TrimSpace(pc.Coverage.Profile)
	pc.ToolsDir = resolvePath(base, pc.ToolsDir)
	for i := range pc.Tools {
		pc.Tools[i].normalize(base)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.ContainsAny(pc.Coverage.Profile, `/\`) {
		return fmt.Errorf("coverage.profile must be a file name, got %q", pc.Coverage.Profile)
	}
	seen := map[string]bool{}
	for i := range pc.Tools {
		if err := pc.Tools[i].validate(); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
		if seen[pc.Tools[i].Name] {
			return fmt.Errorf("tools[%d]: %s listed twice", i, pc.Tools[i].Name)
		}
		seen[pc.Tools[i].Name] = true
	}
	return nil
}

func (o *ToolOverride) normalize(base string) {
	o.Name = strings.TrimSpace(o.Name)
	o.Version = strings.TrimPrefix(strings.TrimSpace(o.Version), "v")
	for i := range o.Tags {
		o.Tags[i] = strings.ToLower(strings.TrimSpace(o.Tags[i]))
	}
	if strings.ContainsRune(o.Path, filepath.Separator) || strings.Contains(o.Path, "/") {
		o.Path = resolvePath(base, o.Path)
	} else {
		o.Path = strings.TrimSpace(o.Path)
	}
}

func (o ToolOverride) validate() error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	for platform, link := range o.Links {
		if strings.Count(platform, "/") != 1 {
			return fmt.Errorf("link platform %q must look like GOOS/GOARCH", platform)
		}
		if strings.TrimSpace(link.URL) == "" || strings.TrimSpace(link.Path) == "" {
			return fmt.Errorf("link %s needs url and path", platform)
		}
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
