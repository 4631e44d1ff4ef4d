package tasks

import (
	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tasks/gotest"
	"github.com/kingrea/invoker/internal/tasks/inventory"
	"github.com/kingrea/invoker/internal/tasks/lint"
	"github.com/kingrea/invoker/internal/tasks/publish"
)

// RegisterBuiltins installs all of the built-in task factories into the
// provided registry.
func RegisterBuiltins(reg *task.Registry, envs *env.Registry) {
	if reg == nil {
		return
	}
	gotest.Register(reg)
	lint.Register(reg)
	publish.Register(reg)
	inventory.Register(reg, envs)
}
