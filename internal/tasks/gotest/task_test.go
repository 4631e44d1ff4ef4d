package gotest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kingrea/invoker/internal/env"
	"github.com/kingrea/invoker/internal/shell"
	"github.com/kingrea/invoker/internal/shell/shelltest"
	"github.com/kingrea/invoker/internal/task"
	"github.com/kingrea/invoker/internal/task/tasktest"
)

const passingOutput = `PASS deque.TestNew (0.00s)
ok  	github.com/neoxelox/gilk	0.120s	coverage: 80.0% of statements
ok  	github.com/neoxelox/gilk/deque	0.014s	coverage: 90.0% of statements
ok  	github.com/neoxelox/gilk/examples	0.010s	coverage: 70.0% of statements

DONE 12 tests in 1.337s
`

func fixedCPUs(n int) Option {
	return WithCPUCount(func() int { return n })
}

func TestSelectorArgs(t *testing.T) {
	cases := map[string][]string{
		"":                  {"./..."},
		"./deque":           {"./deque/..."},
		"./deque/":          {"./deque/..."},
		"./deque/...":       {"./deque/..."},
		"./deque::TestPush": {"./deque/...", "-run", "TestPush"},
		"::TestPush":        {"./...", "-run", "TestPush"},
		"./deque::":         {"./deque/..."},
	}
	for raw, want := range cases {
		if got := ParseSelector(raw).Args(); !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseSelector(%q).Args() = %v, want %v", raw, got, want)
		}
	}
}

func TestArguments(t *testing.T) {
	got := New("./deque::TestPush", true, true, fixedCPUs(8)).Arguments("coverage.out")
	want := []string{
		"--format=testname", "--",
		"-v", "-parallel=8", "-race", "-count=1", "-cover",
		"-coverprofile=coverage.out",
		"./deque/...", "-run", "TestPush",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Arguments() = %v\nwant %v", got, want)
	}
	got = New("", false, false, fixedCPUs(0)).Arguments("coverage.out")
	want = []string{"--format=testname", "--", "-race", "-count=1", "-cover", "./..."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Arguments() without cpus = %v\nwant %v", got, want)
	}
}

func TestRunPrintsCoverageSummary(t *testing.T) {
	h := tasktest.New(t, env.Dev)
	h.Exec.On("gotestsum", shelltest.Reply{Stdout: passingOutput})

	res, err := New("", false, false, fixedCPUs(4)).Run(context.Background(), h.Ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != task.StatusCompleted {
		t.Fatalf("unexpected status %+v", res)
	}
	out := h.Out.String()
	if !strings.Contains(out, "3 pkg") || !strings.Contains(out, "80.0%") {
		t.Fatalf("summary missing: %q", out)
	}
	if res.Message != "coverage 3 pkg: 80.0%" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestRunSkipsSummaryWhenNoTestsRan(t *testing.T) {
	h := tasktest.New(t, env.CI)
	h.Exec.On("gotestsum", shelltest.Reply{Stdout: "coverage: 42.0% of statements\nDONE 0 tests in 0.1s\n"})

	res, err := New("::TestMissing", false, false).Run(context.Background(), h.Ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(h.Out.String(), "Total Coverage") {
		t.Fatalf("summary should be suppressed: %q", h.Out.String())
	}
	if res.Message != "no tests executed" {
		t.Fatalf("message = %q", res.Message)
	}
}

func touchProfile(t *testing.T) func(shell.Command) {
	return func(cmd shell.Command) {
		if cmd.Name == "gotestsum" {
			if err := os.WriteFile(filepath.Join(cmd.Dir, "coverage.out"), []byte("mode: atomic\n"), 0o644); err != nil {
				t.Errorf("write profile: %v", err)
			}
		}
	}
}

func TestShowOpensReportAndDeletesProfile(t *testing.T) {
	h := tasktest.New(t, env.Dev)
	h.Exec.Hook = touchProfile(t)
	h.Exec.On("gotestsum", shelltest.Reply{Stdout: passingOutput})

	if _, err := New("", false, true).Run(context.Background(), h.Ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := h.Exec.Lines()
	if len(lines) != 2 || lines[1] != "go tool cover -html=coverage.out" {
		t.Fatalf("unexpected commands %v", lines)
	}
	if _, err := os.Stat(filepath.Join(h.Dir, "coverage.out")); !os.IsNotExist(err) {
		t.Fatalf("profile should be deleted: %v", err)
	}
}

func TestShowDeletesProfileWhenViewerFails(t *testing.T) {
	h := tasktest.New(t, env.Dev)
	h.Exec.Hook = touchProfile(t)
	h.Exec.On("gotestsum", shelltest.Reply{Stdout: passingOutput})
	h.Exec.On("go tool cover", shelltest.Reply{Stderr: "no browser", ExitCode: 1})

	_, err := New("", false, true).Run(context.Background(), h.Ctx)
	var cmdErr *shell.ExternalCommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected viewer failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.Dir, "coverage.out")); !os.IsNotExist(err) {
		t.Fatalf("profile should be deleted after viewer failure: %v", err)
	}
}

func TestFailingTestsPropagateCapturedOutput(t *testing.T) {
	h := tasktest.New(t, env.Dev)
	h.Exec.Hook = touchProfile(t)
	h.Exec.On("gotestsum", shelltest.Reply{Stdout: "FAIL deque.TestPush\n", ExitCode: 1})

	res, err := New("", false, true).Run(context.Background(), h.Ctx)
	var cmdErr *shell.ExternalCommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected ExternalCommandError, got %v", err)
	}
	if !strings.Contains(cmdErr.Error(), "FAIL deque.TestPush") {
		t.Fatalf("error lost runner output: %v", cmdErr)
	}
	if res.Status != task.StatusFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if len(h.Exec.Lines()) != 1 {
		t.Fatalf("viewer must not run after a failed test run: %v", h.Exec.Lines())
	}
	if _, err := os.Stat(filepath.Join(h.Dir, "coverage.out")); !os.IsNotExist(err) {
		t.Fatalf("profile should be deleted: %v", err)
	}
}
