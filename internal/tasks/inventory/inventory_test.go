package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/task/tasktest"
)

func TestRowsMarkRequirementPerEnvironment(t *testing.T) {
	h := tasktest.New(t, env.Prod)
	rows := Rows(context.Background(), h.Ctx.Tools)
	states := map[string]string{}
	for _, row := range rows {
		states[row.Tool.Name] = row.State
	}
	if states["git"] != StateAssumed {
		t.Fatalf("git state = %s", states["git"])
	}
	if states["gotestsum"] != StateSkipped {
		t.Fatalf("gotestsum state = %s", states["gotestsum"])
	}
	if len(h.Exec.Commands()) != 0 {
		t.Fatalf("tools without links must not be probed: %v", h.Exec.Lines())
	}
}

func TestToolsTaskPrintsTable(t *testing.T) {
	h := tasktest.New(t, env.Dev)
	if _, err := NewTools(true).Run(context.Background(), h.Ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := h.Out.String()
	for _, want := range []string{"golangci-lint", "1.48.0", "dev-only", StateAssumed} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}

func TestEnvsTaskMarksCurrentAndDefault(t *testing.T) {
	h := tasktest.New(t, env.CI)
	if _, err := NewEnvs(env.Builtin()).Run(context.Background(), h.Ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := h.Out.String()
	for _, want := range []string{"dev", "default", "ci-internal", "current", "production"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}
