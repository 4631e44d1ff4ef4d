package gotest

import (
	"context"
	"fmt"
	"runtime"

	"github.com/kingrea/invoker/internal/coverage"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tool"
)

const taskID = "test"

// Option customizes the test task.
type Option func(*Task)

// Task runs the test suite and reports coverage.
type Task struct {
	selector Selector
	verbose  bool
	show     bool
	cpus     func() int
}

// Register installs the test task factory.
func Register(reg *task.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(taskID, func(cfg task.Config) (task.Task, error) {
		return New(cfg.String("target"), cfg.Bool("verbose"), cfg.Bool("show")), nil
	})
}

// New constructs the task. target uses the "<package>::<test>" selector form.
func New(target string, verbose, show bool, opts ...Option) *Task {
	t := &Task{
		selector: ParseSelector(target),
		verbose:  verbose,
		show:     show,
		cpus:     runtime.NumCPU,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// WithCPUCount overrides processing unit detection (tests). A count below one
// leaves parallelism to the runner.
func WithCPUCount(count func() int) Option {
	return func(t *Task) {
		if count != nil {
			t.cpus = count
		}
	}
}

// Info implements task.Task.
func (t *Task) Info() task.Info {
	return task.Info{
		ID:      taskID,
		Summary: "Run tests.",
		Usage:   "[-verbose] [-show] [<PACKAGE_PATH>]::[<TEST_NAME>]",
		Tools:   []string{tool.Test, tool.Go},
	}
}

// Arguments builds the gotestsum command line.
func (t *Task) Arguments(profile string) []string {
	args := []string{"--format=testname", "--"}
	if t.verbose {
		args = append(args, "-v")
	}
	if n := t.cpus(); n > 0 {
		args = append(args, fmt.Sprintf("-parallel=%d", n))
	}
	args = append(args, "-race", "-count=1", "-cover")
	if t.show {
		args = append(args, "-coverprofile="+profile)
	}
	return append(args, t.selector.Args()...)
}

// Run implements task.Task.
func (t *Task) Run(ctx context.Context, rc *task.Context) (task.Result, error) {
	if err := rc.Validate(taskID); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	profile := rc.Config.CoverageProfile()
	if t.show {
		defer func() {
			if err := rc.Remove(profile); err != nil {
				rc.Warn("%v", err)
			}
		}()
	}

	res, err := rc.RunTool(ctx, tool.Test, t.Arguments(profile)...)
	if err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}

	message := "no tests executed"
	if !coverage.NoTestsRan(res.Combined) {
		summary := coverage.Summarize(coverage.Parse(res.Combined))
		rc.Console.Coverage(summary.Packages, summary.Mean)
		message = "coverage " + summary.String()
	}

	if t.show {
		if _, err := rc.RunTool(ctx, tool.Go, "tool", "cover", "-html="+profile); err != nil {
			return task.Result{Status: task.StatusFailed}, err
		}
	}
	return task.Result{Status: task.StatusCompleted, Message: message}, nil
}
