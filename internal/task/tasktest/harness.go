// Package tasktest wires a task.Context against a scripted executor so tasks
// can be exercised without spawning processes or touching the network.
package tasktest

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/kingrea/invoker/internal/config"
	"github.com/kingrea/invoker/internal/console"
	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/shell/shelltest"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/tool"
)

// Harness bundles a context with the fakes behind it.
type Harness struct {
	Ctx  *task.Context
	Exec *shelltest.Recorder
	Out  *bytes.Buffer
	Err  *bytes.Buffer
	Dir  string
}

// New returns a harness for current. Built-in tools are declared without
// download links and are invoked by bare name, so provisioning never
// downloads.
func New(t testing.TB, current env.Environment) *Harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	tools := make([]tool.Tool, 0, len(tool.Builtins))
	for _, tl := range tool.Builtins {
		tl.Links = nil
		tl.Path = tl.Name
		tools = append(tools, tl)
	}
	reg, err := tool.NewRegistry(filepath.Join(dir, "bin"), tools...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	rec := &shelltest.Recorder{}
	prov, err := tool.NewProvisioner(current, reg, rec, filepath.Join(dir, "tools"))
	if err != nil {
		t.Fatalf("provisioner: %v", err)
	}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &Harness{
		Ctx:  task.NewContext(cfg, current, prov, rec, console.New(out, errOut), nil),
		Exec: rec,
		Out:  out,
		Err:  errOut,
		Dir:  dir,
	}
}
