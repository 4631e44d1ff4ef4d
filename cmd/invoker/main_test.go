package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kingrea/invoker/internal/console"
	"github.com/kingrea/invoker/internal/logging"
)

func TestParseTaskArgsForTest(t *testing.T) {
	cfg, err := parseTaskArgs("test", []string{"-verbose", "-show", "./deque::TestPush"})
	if err != nil {
		t.Fatalf("parseTaskArgs: %v", err)
	}
	if !cfg.Bool("verbose") || !cfg.Bool("show") {
		t.Fatalf("flags not parsed: %+v", cfg)
	}
	if cfg.String("target") != "./deque::TestPush" {
		t.Fatalf("target = %q", cfg.String("target"))
	}
}

func TestParseTaskArgsRejectsExtraArguments(t *testing.T) {
	if _, err := parseTaskArgs("lint", []string{"./..."}); err == nil {
		t.Fatalf("expected error for unexpected lint argument")
	}
	if _, err := parseTaskArgs("test", []string{"a", "b"}); err == nil {
		t.Fatalf("expected error for two test targets")
	}
}

func TestParseTaskArgsForTools(t *testing.T) {
	cfg, err := parseTaskArgs("tools", []string{"-install"})
	if err != nil {
		t.Fatalf("parseTaskArgs: %v", err)
	}
	if !cfg.Bool("install") {
		t.Fatalf("install flag not parsed")
	}
}

func TestFatalLogsAndClosesLogger(t *testing.T) {
	logger, err := logging.New(t.TempDir())
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	var errOut bytes.Buffer
	code := fatal(console.New(&bytes.Buffer{}, &errOut), logger, errors.New("publish: boom"))
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut.String(), "publish: boom") {
		t.Fatalf("error not printed: %q", errOut.String())
	}
	if err := logger.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("logger should already be closed, Close() = %v", err)
	}
	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "fatal: publish: boom") {
		t.Fatalf("log missing fatal line: %q", data)
	}
}

func TestFatalWithoutLogger(t *testing.T) {
	var errOut bytes.Buffer
	if code := fatal(console.New(&bytes.Buffer{}, &errOut), nil, errors.New("env: unknown environment")); code != 1 {
		t.Fatalf("exit code = %d", code)
	}
}
