package task

import "fmt"

// GatingError reports an operation that is not permitted in the current
// environment. It is returned before the task touches anything.
type GatingError struct {
	Task     string
	Env      string
	Required string
}

func (e *GatingError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: command only available in %s environment, current is %s", e.Task, e.Required, e.Env)
}
