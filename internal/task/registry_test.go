package task

import (
	"context"
	"testing"
)

type stubTask struct{ info Info }

func (s stubTask) Info() Info { return s.info }

func (s stubTask) Run(context.Context, *Context) (Result, error) {
	return Result{Status: StatusCompleted}, nil
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("lint", func(Config) (Task, error) {
		return stubTask{info: Info{ID: "lint", Summary: "Run linter."}}, nil
	})
	if err := reg.Register("lint", func(Config) (Task, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	got, err := reg.Resolve("lint", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Info().ID != "lint" {
		t.Fatalf("unexpected task %+v", got.Info())
	}
	if _, err := reg.Resolve("deploy", nil); err == nil {
		t.Fatalf("expected unknown task error")
	}
}

func TestRegistryResolveValidatesInfo(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("broken", func(Config) (Task, error) {
		return stubTask{info: Info{ID: "broken"}}, nil
	})
	if _, err := reg.Resolve("broken", nil); err == nil {
		t.Fatalf("expected info validation error")
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := Config{"target": "./deque::TestPush", "verbose": true, "show": "true", "count": 3}
	if cfg.String("target") != "./deque::TestPush" {
		t.Fatalf("String target = %q", cfg.String("target"))
	}
	if cfg.String("count") != "3" || cfg.String("missing") != "" {
		t.Fatalf("String conversion wrong")
	}
	if !cfg.Bool("verbose") || !cfg.Bool("show") || cfg.Bool("missing") {
		t.Fatalf("Bool conversion wrong")
	}
}

func TestRegistryResolveRejectsMismatchedID(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("fmt", func(Config) (Task, error) {
		return stubTask{info: Info{ID: "format", Summary: "Run formatter."}}, nil
	})
	if _, err := reg.Resolve("fmt", nil); err == nil {
		t.Fatalf("expected id mismatch error")
	}
}

func TestRegistryMissingTools(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("lint", func(Config) (Task, error) {
		return stubTask{info: Info{ID: "lint", Summary: "Run linter.", Tools: []string{"golangci-lint"}}}, nil
	})
	reg.MustRegister("publish", func(Config) (Task, error) {
		return stubTask{info: Info{ID: "publish", Summary: "Publish package.", Tools: []string{"git", "curl"}}}, nil
	})
	declared := map[string]bool{"git": true, "golangci-lint": true}
	missing, err := reg.MissingTools(func(name string) bool { return declared[name] })
	if err != nil {
		t.Fatalf("MissingTools: %v", err)
	}
	if len(missing) != 1 || len(missing["publish"]) != 1 || missing["publish"][0] != "curl" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestRegistryInfosAreSorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"test", "envs", "lint"} {
		reg.MustRegister(id, func(Config) (Task, error) {
			return stubTask{info: Info{ID: id, Summary: "x"}}, nil
		})
	}
	infos, err := reg.Infos()
	if err != nil {
		t.Fatalf("Infos: %v", err)
	}
	if len(infos) != 3 || infos[0].ID != "envs" || infos[2].ID != "test" {
		t.Fatalf("infos = %+v", infos)
	}
}
