package task

import (
	"context"
	"fmt"
)

// Info describes a task's identity and the tools it invokes.
type Info struct {
	ID      string
	Summary string
	// Usage lists the task's arguments for help output.
	Usage string
	// Tools names the registry tools the task resolves before running.
	Tools []string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("task: id is required")
	}
	if i.Summary == "" {
		return fmt.Errorf("task: summary is required for %s", i.ID)
	}
	return nil
}

// Result captures the outcome of a task execution.
type Result struct {
	Status  Status
	Message string
}

// Status enumerates task run outcomes.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusNoOp      Status = "no-op"
	StatusFailed    Status = "failed"
)

// Task is implemented by every orchestration operation.
type Task interface {
	Info() Info
	Run(ctx context.Context, rc *Context) (Result, error)
}
