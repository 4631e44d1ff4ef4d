package publish

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/mod/module"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/release"
	"github.com/kingrea/invoker/internal/shell"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tool"
)

const (
	taskID = "publish"

	defaultProxy = "https://proxy.golang.org"
	defaultSumDB = "https://sum.golang.org"
)

// Option customizes the publish task.
type Option func(*Task)

// Task tags and announces a release.
type Task struct {
	proxy      string
	sumDB      string
	scratchDir func() (string, error)
}

// Register installs the publish task factory.
func Register(reg *task.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(taskID, func(task.Config) (task.Task, error) {
		return New(), nil
	})
}

// New constructs the publish task.
func New(opts ...Option) *Task {
	t := &Task{
		proxy: defaultProxy,
		sumDB: defaultSumDB,
		scratchDir: func() (string, error) {
			return os.MkdirTemp("", "invoker-publish-")
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// WithRegistries points the cache refresh at another proxy and checksum
// database.
func WithRegistries(proxy, sumDB string) Option {
	return func(t *Task) {
		if proxy != "" {
			t.proxy = proxy
		}
		if sumDB != "" {
			t.sumDB = sumDB
		}
	}
}

// WithScratchDir overrides where the throwaway module is created (tests).
func WithScratchDir(dir func() (string, error)) Option {
	return func(t *Task) {
		if dir != nil {
			t.scratchDir = dir
		}
	}
}

// Info implements task.Task.
func (t *Task) Info() task.Info {
	return task.Info{
		ID:      taskID,
		Summary: "Publish package.",
		Tools:   []string{tool.Git, tool.Curl, tool.Go},
	}
}

// Run implements task.Task.
func (t *Task) Run(ctx context.Context, rc *task.Context) (task.Result, error) {
	if err := rc.Validate(taskID); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	if !rc.Env.Has(env.TagProduction) {
		return task.Result{Status: task.StatusFailed}, &task.GatingError{Task: taskID, Env: rc.Env.Name, Required: env.Prod.Name}
	}
	modPath, err := rc.Config.ModulePath()
	if err != nil {
		return task.Result{Status: task.StatusFailed}, fmt.Errorf("%s: %w", taskID, err)
	}

	version, err := t.tag(ctx, rc)
	if err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	if err := t.refresh(ctx, rc, modPath, version); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	return task.Result{Status: task.StatusCompleted, Message: fmt.Sprintf("published %s@%s", modPath, version)}, nil
}

// tag returns the release version for HEAD, creating and pushing a new tag
// when HEAD has none.
func (t *Task) tag(ctx context.Context, rc *task.Context) (string, error) {
	git, err := rc.Git(ctx)
	if err != nil {
		return "", err
	}
	current, err := git.CurrentTag(ctx)
	if err != nil {
		return "", err
	}
	if current != "" {
		rc.Info("Version tag already set: %s", current)
		return current, nil
	}

	latest, err := git.LatestTag(ctx)
	if err != nil {
		return "", err
	}
	base := latest
	if base == "" {
		base = release.BaseVersion
	}
	version, err := release.NextVersion(base)
	if err != nil {
		return "", err
	}
	rc.Info("Version tag not set, generating one from %s: %s", base, version)
	if err := git.CreateTag(ctx, version); err != nil {
		return "", err
	}
	if err := git.PushWithTags(ctx); err != nil {
		return "", err
	}
	return version, nil
}

// refresh asks the checksum database and proxy to index version, then
// fetches it through the proxy from a scratch module.
func (t *Task) refresh(ctx context.Context, rc *task.Context, modPath, version string) error {
	rc.Info("Refreshing golang module registry cache")

	escPath, err := module.EscapePath(modPath)
	if err != nil {
		return fmt.Errorf("%s: escape module path %s: %w", taskID, modPath, err)
	}
	escVersion, err := module.EscapeVersion(version)
	if err != nil {
		return fmt.Errorf("%s: escape version %s: %w", taskID, version, err)
	}

	dir, err := t.scratchDir()
	if err != nil {
		return fmt.Errorf("%s: create scratch dir: %w", taskID, err)
	}
	scratch := rc.In(dir)
	defer func() {
		if err := scratch.Remove(dir); err != nil {
			rc.Warn("%v", err)
		}
	}()

	lookups := []string{
		fmt.Sprintf("%s/lookup/%s@%s", t.sumDB, escPath, escVersion),
		fmt.Sprintf("%s/%s/@v/%s.info", t.proxy, escPath, escVersion),
	}
	for _, url := range lookups {
		if _, err := scratch.RunTool(ctx, tool.Curl, "-fsSL", url); err != nil {
			rc.Warn("registry lookup %s failed: %v", url, err)
		}
	}

	goPath, err := scratch.Tool(ctx, tool.Go)
	if err != nil {
		return err
	}
	if _, err := scratch.Run(ctx, shell.Command{Name: goPath, Args: []string{"mod", "init", "publish"}}); err != nil {
		return err
	}
	_, err = scratch.Run(ctx, shell.Command{
		Name: goPath,
		Args: []string{"get", modPath + "@" + version},
		Env: map[string]string{
			"GOPROXY":     t.proxy,
			"GO111MODULE": "on",
		},
	})
	return err
}
