// Package inventory implements the read-only `tools` and `envs` tasks that
// show what the current environment needs and what is installed.
package inventory

import (
	"context"
	"strings"

	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tool"
)

const toolsID = "tools"

// Tool states reported by the tools task.
const (
	StateReady    = "ready"
	StateMissing  = "missing"
	StateMismatch = "mismatch"
	StateAssumed  = "assumed"
	StateSkipped  = "not required"
)

// ToolsTask lists the tool table for the current environment and can
// provision every required tool up front.
type ToolsTask struct {
	install bool
}

// NewTools constructs the tools task. With install set, required tools are
// provisioned before the listing is printed.
func NewTools(install bool) *ToolsTask {
	return &ToolsTask{install: install}
}

// Info implements task.Task.
func (t *ToolsTask) Info() task.Info {
	return task.Info{ID: toolsID, Summary: "List pinned tools for the current environment.", Usage: "[-install]"}
}

// Row is one line of the tools listing.
type Row struct {
	Tool      tool.Tool
	Required  bool
	Managed   bool
	Installed string
	State     string
}

// Rows inspects every declared tool without installing anything. Tools
// without a download link are not probed, matching provisioning.
func Rows(ctx context.Context, prov *tool.Provisioner) []Row {
	current := prov.Environment()
	platform := prov.Platform()
	var rows []Row
	for _, t := range prov.Registry().All() {
		row := Row{Tool: t, Required: t.RequiredIn(current)}
		row.Tool.Path = prov.Registry().InvocationPath(t, platform)
		_, row.Managed = t.LinkFor(platform)
		switch {
		case !row.Required:
			row.State = StateSkipped
		case !row.Managed:
			row.State = StateAssumed
		default:
			installed, err := prov.InstalledVersion(ctx, t)
			row.Installed = installed
			switch {
			case err != nil:
				row.State = StateMissing
			case installed != t.Version:
				row.State = StateMismatch
			default:
				row.State = StateReady
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Run implements task.Task.
func (t *ToolsTask) Run(ctx context.Context, rc *task.Context) (task.Result, error) {
	if err := rc.Validate(toolsID); err != nil {
		return task.Result{Status: task.StatusFailed}, err
	}
	if t.install {
		if err := rc.Tools.ProvisionRequired(ctx); err != nil {
			return task.Result{Status: task.StatusFailed}, err
		}
	}
	var table [][]string
	for _, row := range Rows(ctx, rc.Tools) {
		tags := make([]string, 0, len(row.Tool.Tags))
		for _, tag := range row.Tool.Tags {
			tags = append(tags, string(tag))
		}
		installed := row.Installed
		if installed == "" {
			installed = "-"
		}
		table = append(table, []string{row.Tool.Name, row.Tool.Version, installed, strings.Join(tags, ","), row.Tool.Path, row.State})
	}
	rc.Info("Tools for environment %s", rc.Env.Name)
	rc.Console.Table([]string{"TOOL", "PINNED", "INSTALLED", "TAGS", "PATH", "STATE"}, table)
	return task.Result{Status: task.StatusCompleted}, nil
}
