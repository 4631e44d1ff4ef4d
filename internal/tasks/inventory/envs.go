package inventory

import (
	"context"
	"strings"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/task"
)

const envsID = "envs"

// EnvsTask lists the declared environments.
type EnvsTask struct {
	envs *env.Registry
}

// NewEnvs constructs the envs task over reg.
func NewEnvs(reg *env.Registry) *EnvsTask {
	return &EnvsTask{envs: reg}
}

// Info implements task.Task.
func (t *EnvsTask) Info() task.Info {
	return task.Info{ID: envsID, Summary: "List environments."}
}

// Run implements task.Task.
func (t *EnvsTask) Run(_ context.Context, rc *task.Context) (task.Result, error) {
	if err := rc.Validate(envsID); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	var rows [][]string
	for _, name := range t.envs.Names() {
		e, _ := t.envs.Lookup(name)
		tags := make([]string, 0, len(e.Tags))
		for _, tag := range e.Tags {
			tags = append(tags, string(tag))
		}
		var marks []string
		if name == t.envs.Default().Name {
			marks = append(marks, "default")
		}
		if name == rc.Env.Name {
			marks = append(marks, "current")
		}
		rows = append(rows, []string{name, strings.Join(tags, ","), strings.Join(marks, ",")})
	}
	rc.Console.Table([]string{"ENV", "TAGS", ""}, rows)
	return task.Result{Status: task.StatusCompleted}, nil
}

// Register installs the tools and envs task factories.
func Register(reg *task.Registry, envs *env.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(toolsID, func(cfg task.Config) (task.Task, error) {
		return NewTools(cfg.Bool("install")), nil
	})
	reg.MustRegister(envsID, func(task.Config) (task.Task, error) {
		return NewEnvs(envs), nil
	})
}
