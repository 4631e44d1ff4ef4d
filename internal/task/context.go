package task

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/invoker/internal/config"
	"github.com/kingrea/invoker/internal/console"
	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/shell"
	"github.com/kingrea/invoker/internal/tool"
	"github.com/kingrea/invoker/internal/vcs"
)

// Logger is the subset of the file logger tasks write to.
type Logger interface {
	Printf(format string, args ...any)
}

// Context carries shared runtime dependencies into every task.
type Context struct {
	Config  *config.Config
	Env     env.Environment
	Tools   *tool.Provisioner
	Exec    shell.Executor
	Console *console.Console
	Log     Logger
	// Dir is the working directory commands and paths are relative to.
	Dir string
}

// NewContext builds a Context rooted at the project directory.
func NewContext(cfg *config.Config, current env.Environment, tools *tool.Provisioner, exec shell.Executor, con *console.Console, log Logger) *Context {
	return &Context{
		Config:  cfg,
		Env:     current,
		Tools:   tools,
		Exec:    exec,
		Console: con,
		Log:     log,
		Dir:     cfg.ProjectDir,
	}
}

// Validate ensures tasks receive a usable context.
func (rc *Context) Validate(taskID string) error {
	if rc == nil {
		return fmt.Errorf("%s: context is nil", taskID)
	}
	if rc.Config == nil {
		return fmt.Errorf("%s: config is required", taskID)
	}
	if rc.Tools == nil {
		return fmt.Errorf("%s: tool provisioner is required", taskID)
	}
	if rc.Exec == nil {
		return fmt.Errorf("%s: executor is required", taskID)
	}
	if rc.Console == nil {
		return fmt.Errorf("%s: console is required", taskID)
	}
	return nil
}

// In returns a copy of the context scoped to dir. Relative dirs are joined to
// the current working directory.
func (rc *Context) In(dir string) *Context {
	clone := *rc
	if filepath.IsAbs(dir) {
		clone.Dir = dir
	} else {
		clone.Dir = filepath.Join(rc.Dir, dir)
	}
	return &clone
}

// Path resolves p against the working directory.
func (rc *Context) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rc.Dir, p)
}

// Tool resolves a registry tool to its invocation path.
func (rc *Context) Tool(ctx context.Context, name string) (string, error) {
	path, err := rc.Tools.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Run executes cmd in the working directory unless cmd.Dir is set.
func (rc *Context) Run(ctx context.Context, cmd shell.Command) (shell.Result, error) {
	if cmd.Dir == "" {
		cmd.Dir = rc.Dir
	}
	rc.logf("run: %s (in %s)", cmd, cmd.Dir)
	res, err := rc.Exec.Run(ctx, cmd)
	if err != nil {
		rc.logf("run failed: %s: %v", cmd.Name, firstLine(err))
	}
	return res, err
}

// RunTool resolves name and runs it with args.
func (rc *Context) RunTool(ctx context.Context, name string, args ...string) (shell.Result, error) {
	path, err := rc.Tool(ctx, name)
	if err != nil {
		return shell.Result{}, err
	}
	return rc.Run(ctx, shell.Command{Name: path, Args: args})
}

// Git returns a git client for the working directory.
func (rc *Context) Git(ctx context.Context) (*vcs.Git, error) {
	path, err := rc.Tool(ctx, tool.Git)
	if err != nil {
		return nil, err
	}
	return vcs.New(rc.Exec, path, rc.Dir), nil
}

// Create makes a file or directory at p. Existing directories are kept.
func (rc *Context) Create(p string, dir bool) error {
	target := rc.Path(p)
	if dir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("task: create dir %s: %w", target, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("task: create parent of %s: %w", target, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("task: create %s: %w", target, err)
	}
	return f.Close()
}

// Remove deletes p recursively. A missing path is not an error.
func (rc *Context) Remove(p string) error {
	target := rc.Path(p)
	if err := os.RemoveAll(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("task: remove %s: %w", target, err)
	}
	rc.logf("removed %s", target)
	return nil
}

// Info reports progress to the operator and the log.
func (rc *Context) Info(format string, args ...any) {
	rc.Console.Info(format, args...)
	rc.logf(format, args...)
}

// Warn reports a non-fatal problem to the operator and the log.
func (rc *Context) Warn(format string, args ...any) {
	rc.Console.Warn(format, args...)
	rc.logf("warning: "+format, args...)
}

func (rc *Context) logf(format string, args ...any) {
	if rc.Log != nil {
		rc.Log.Printf(format, args...)
	}
}

func firstLine(err error) string {
	msg := err.Error()
	for i, r := range msg {
		if r == '\n' {
			return msg[:i]
		}
	}
	return msg
}
