// Package shelltest provides a scripted shell.Executor for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"

	"github.com/kingrea/invoker/internal/shell"
)

// Reply is the canned outcome for a matched command.
type Reply struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Recorder records every command and answers from scripted replies keyed by
// command line prefix. Unmatched commands succeed with empty output.
type Recorder struct {
	mu       sync.Mutex
	commands []shell.Command
	replies  []scripted
	// Hook runs before a reply is produced; tests use it to touch files.
	Hook func(shell.Command)
}

type scripted struct {
	prefix string
	reply  Reply
}

// On registers a reply for commands whose rendered line starts with prefix.
// Later registrations win over earlier ones.
func (r *Recorder) On(prefix string, reply Reply) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, scripted{prefix: prefix, reply: reply})
	return r
}

// Run implements shell.Executor.
func (r *Recorder) Run(_ context.Context, cmd shell.Command) (shell.Result, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	hook := r.Hook
	reply := r.match(Line(cmd))
	r.mu.Unlock()
	if hook != nil {
		hook(cmd)
	}
	res := shell.Result{
		Stdout:   reply.Stdout,
		Stderr:   reply.Stderr,
		Combined: reply.Stdout + reply.Stderr,
		ExitCode: reply.ExitCode,
	}
	if reply.Err != nil {
		return res, reply.Err
	}
	if reply.ExitCode != 0 {
		return res, &shell.ExternalCommandError{Command: cmd, Result: res}
	}
	return res, nil
}

func (r *Recorder) match(line string) Reply {
	for i := len(r.replies) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.replies[i].prefix) {
			return r.replies[i].reply
		}
	}
	return Reply{}
}

// Commands returns the recorded commands in order.
func (r *Recorder) Commands() []shell.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Command(nil), r.commands...)
}

// Lines returns the recorded commands rendered as plain space-joined lines.
func (r *Recorder) Lines() []string {
	cmds := r.Commands()
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		lines = append(lines, Line(c))
	}
	return lines
}

// Line joins a command's name and args with single spaces.
func Line(c shell.Command) string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}
