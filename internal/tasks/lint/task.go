// Package lint implements the `lint` and `format` tasks, both thin wrappers
// around golangci-lint with the project's configuration file. `format` adds
// --fix; a tree it has fixed lints clean for the fixable linters.
package lint

import (
	"context"

	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tool"
)

const (
	lintID   = "lint"
	formatID = "format"
)

// Task runs golangci-lint over the whole project.
type Task struct {
	fix bool
}

// Register installs the lint and format task factories.
func Register(reg *task.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(lintID, func(task.Config) (task.Task, error) {
		return NewLint(), nil
	})
	reg.MustRegister(formatID, func(task.Config) (task.Task, error) {
		return NewFormat(), nil
	})
}

// NewLint reports violations without touching files.
func NewLint() *Task {
	return &Task{}
}

// NewFormat applies the linters' automatic fixes.
func NewFormat() *Task {
	return &Task{fix: true}
}

// Info implements task.Task.
func (t *Task) Info() task.Info {
	if t.fix {
		return task.Info{ID: formatID, Summary: "Run formatter.", Tools: []string{tool.Lint}}
	}
	return task.Info{ID: lintID, Summary: "Run linter.", Tools: []string{tool.Lint}}
}

// Arguments builds the golangci-lint command line.
func (t *Task) Arguments(configPath string) []string {
	args := []string{"run", "./...", "-c", configPath}
	if t.fix {
		args = append(args, "--fix")
	}
	return args
}

// Run implements task.Task. Violations surface as the linter's exit status.
func (t *Task) Run(ctx context.Context, rc *task.Context) (task.Result, error) {
	id := t.Info().ID
	if err := rc.Validate(id); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	if _, err := rc.RunTool(ctx, tool.Lint, t.Arguments(rc.Config.LintConfigPath())...); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	return task.Result{Status: task.StatusCompleted}, nil
}
