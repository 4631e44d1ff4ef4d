// Package shell runs external commands on behalf of tasks, streaming their
// output to the operator while capturing it for post-processing.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
)

// Command describes a single external invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the executor's default.
	Dir string
	// Env is layered on top of the parent process environment.
	Env map[string]string
}

// String renders the command the way an operator would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t'\"") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Result captures what a finished command produced.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// Executor runs commands. Implementations must return *ExternalCommandError
// when the command exits with a non-zero status.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Exec runs commands as child processes.
type Exec struct {
	// Dir is used when Command.Dir is empty.
	Dir string
	// Stdout and Stderr receive a live copy of the command output. Nil
	// discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an executor rooted at dir that mirrors output to the
// current process streams.
func NewExec(dir string) *Exec {
	return &Exec{Dir: dir, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Executor.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Result{}, fmt.Errorf("shell: command name is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if cmd.Dir == "" {
		cmd.Dir = e.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), flattenEnv(c.Env)...)
	}

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	cmd.Stdout = io.MultiWriter(append([]io.Writer{&stdout, combined}, nonNil(e.Stdout)...)...)
	cmd.Stderr = io.MultiWriter(append([]io.Writer{&stderr, combined}, nonNil(e.Stderr)...)...)

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &ExternalCommandError{Command: c, Result: result}
		}
		return result, fmt.Errorf("shell: start %s: %w", c.Name, err)
	}
	return result, nil
}

func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key+"="+env[key])
	}
	return out
}

func nonNil(w io.Writer) []io.Writer {
	if w == nil {
		return nil
	}
	return []io.Writer{w}
}

// lockedBuffer lets stdout and stderr copy goroutines share one buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
