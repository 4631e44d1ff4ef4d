package tool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/shell"
)

// Logger is the subset of the file logger the provisioner writes to.
type Logger interface {
	Printf(format string, args ...any)
}

// Progress observes archive downloads.
type Progress interface {
	Start(tool string, total int64)
	Advance(written int64)
	Finish(err error)
}

// Provisioner resolves tool names to runnable paths for one environment.
//
// Outcomes are memoized for the lifetime of the provisioner so each tool gets
// at most one installation attempt per run. There is no locking across
// processes: two invoker runs sharing a tools cache can race.
type Provisioner struct {
	env      env.Environment
	registry *Registry
	exec     shell.Executor
	platform Platform
	cacheDir string
	client   *http.Client
	progress Progress
	log      Logger
	memo     *lru.Cache[string, outcome]
}

type outcome struct {
	path string
	err  error
}

// ProvisionerOption customizes a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithPlatform overrides the detected platform (tests).
func WithPlatform(p Platform) ProvisionerOption {
	return func(pr *Provisioner) {
		if p != "" {
			pr.platform = p
		}
	}
}

// WithHTTPClient sets the client used for archive downloads.
func WithHTTPClient(c *http.Client) ProvisionerOption {
	return func(pr *Provisioner) {
		if c != nil {
			pr.client = c
		}
	}
}

// WithProgress reports download progress to p.
func WithProgress(p Progress) ProvisionerOption {
	return func(pr *Provisioner) {
		if p != nil {
			pr.progress = p
		}
	}
}

// WithLogger records provisioning decisions.
func WithLogger(l Logger) ProvisionerOption {
	return func(pr *Provisioner) {
		if l != nil {
			pr.log = l
		}
	}
}

// NewProvisioner builds a provisioner. cacheDir receives downloaded archives
// and their extracted contents; exec is used to query tool versions.
func NewProvisioner(current env.Environment, registry *Registry, exec shell.Executor, cacheDir string, opts ...ProvisionerOption) (*Provisioner, error) {
	if registry == nil {
		return nil, fmt.Errorf("tool: registry is required")
	}
	if exec == nil {
		return nil, fmt.Errorf("tool: executor is required")
	}
	size := registry.Len()
	if size == 0 {
		size = 1
	}
	memo, err := lru.New[string, outcome](size)
	if err != nil {
		return nil, fmt.Errorf("tool: memo: %w", err)
	}
	p := &Provisioner{
		env:      current,
		registry: registry,
		exec:     exec,
		platform: CurrentPlatform(),
		cacheDir: cacheDir,
		client:   http.DefaultClient,
		progress: nopProgress{},
		log:      nopLogger{},
		memo:     memo,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Environment returns the environment the provisioner filters by.
func (p *Provisioner) Environment() env.Environment {
	return p.env
}

// Platform returns the platform download links are chosen for.
func (p *Provisioner) Platform() Platform {
	return p.platform
}

// Registry returns the tool table.
func (p *Provisioner) Registry() *Registry {
	return p.registry
}

// Resolve returns the invocation path for the named tool, installing it first
// if it has a download link for this platform and the pinned version is not
// already present.
//
// Only declared tools are memoized, so the memo never holds more entries than
// the registry and an outcome is never evicted.
func (p *Provisioner) Resolve(ctx context.Context, name string) (string, error) {
	t, ok := p.registry.Lookup(name)
	if !ok {
		return "", resolutionError(name, ReasonNotDeclared, nil, "")
	}
	if cached, ok := p.memo.Get(name); ok {
		return cached.path, cached.err
	}
	path, err := p.resolve(ctx, t)
	p.memo.Add(name, outcome{path: path, err: err})
	return path, err
}

// ProvisionRequired resolves every tool required in the environment, stopping at
// the first failure.
func (p *Provisioner) ProvisionRequired(ctx context.Context) error {
	for _, t := range p.registry.All() {
		if !t.RequiredIn(p.env) {
			continue
		}
		if _, err := p.Resolve(ctx, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) resolve(ctx context.Context, t Tool) (string, error) {
	if !t.RequiredIn(p.env) {
		return "", resolutionError(t.Name, ReasonNotRequired, nil, "%s", p.env.Name)
	}
	link, ok := t.LinkFor(p.platform)
	if !ok {
		path := p.registry.InvocationPath(t, p.platform)
		p.log.Printf("tool %s: no download link for %s, using %s", t.Name, p.platform, path)
		return path, nil
	}
	if installed, err := p.InstalledVersion(ctx, t); err == nil && installed == t.Version {
		p.log.Printf("tool %s: %s already installed at %s", t.Name, installed, t.Path)
		return t.Path, nil
	}
	if err := p.install(ctx, t, link); err != nil {
		return "", err
	}
	installed, err := p.InstalledVersion(ctx, t)
	if err != nil {
		return "", resolutionError(t.Name, ReasonVersionMismatch, err, "want %s", t.Version)
	}
	if installed != t.Version {
		return "", resolutionError(t.Name, ReasonVersionMismatch, nil, "want %s, got %s", t.Version, installed)
	}
	p.log.Printf("tool %s: installed %s at %s", t.Name, installed, t.Path)
	return t.Path, nil
}

// InstalledVersion runs the tool's version command and extracts the first
// version-shaped token from its output.
func (p *Provisioner) InstalledVersion(ctx context.Context, t Tool) (string, error) {
	if filepath.IsAbs(t.Path) {
		if _, err := os.Stat(t.Path); err != nil {
			return "", err
		}
	}
	res, err := p.exec.Run(ctx, shell.Command{Name: t.Path, Args: t.versionArgs()})
	if err != nil {
		return "", err
	}
	version := ParseVersion(res.Stdout + res.Stderr)
	if version == "" {
		return "", fmt.Errorf("tool: %s printed no version", t.Name)
	}
	return version, nil
}

var versionPattern = regexp.MustCompile(`[0-9]+\.[0-9]+(?:\.[0-9]+)?`)

// ParseVersion extracts the first MAJOR.MINOR[.PATCH] token from output.
func ParseVersion(output string) string {
	return versionPattern.FindString(output)
}

func (p *Provisioner) install(ctx context.Context, t Tool, link Link) error {
	installDir := filepath.Join(p.cacheDir, t.Name, t.Version)
	if err := os.RemoveAll(installDir); err != nil {
		return resolutionError(t.Name, ReasonInstall, err, "clear %s", installDir)
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return resolutionError(t.Name, ReasonInstall, err, "create %s", installDir)
	}
	p.log.Printf("tool %s: downloading %s", t.Name, link.URL)
	archive, err := p.download(ctx, t.Name, link.URL, installDir)
	if err != nil {
		return resolutionError(t.Name, ReasonDownload, err, "%s", link.URL)
	}
	defer os.Remove(archive)
	if err := extract(archive, link.URL, installDir); err != nil {
		return resolutionError(t.Name, ReasonExtract, err, "%s", filepath.Base(archive))
	}
	binary := filepath.Join(installDir, filepath.FromSlash(link.ExtractedPath))
	if !within(installDir, binary) {
		return resolutionError(t.Name, ReasonMissingBinary, nil, "%s escapes the archive", link.ExtractedPath)
	}
	if resolved, err := filepath.EvalSymlinks(binary); err == nil {
		realDir, derr := filepath.EvalSymlinks(installDir)
		if derr != nil || !within(realDir, resolved) {
			return resolutionError(t.Name, ReasonMissingBinary, derr, "%s resolves outside the archive", link.ExtractedPath)
		}
	}
	info, err := os.Stat(binary)
	if err != nil || info.IsDir() {
		return resolutionError(t.Name, ReasonMissingBinary, err, "%s", link.ExtractedPath)
	}
	if err := os.Chmod(binary, info.Mode()|0o111); err != nil {
		return resolutionError(t.Name, ReasonInstall, err, "chmod %s", binary)
	}
	if err := linkBinary(binary, t.Path); err != nil {
		return resolutionError(t.Name, ReasonInstall, err, "link %s", t.Path)
	}
	return nil
}

func linkBinary(target, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(target, path)
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Advance(int64)       {}
func (nopProgress) Finish(error)        {}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
