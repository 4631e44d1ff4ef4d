package shell

import (
	"fmt"
	"strings"
)

// ExternalCommandError reports a delegated command that exited non-zero. The
// captured output is kept so it can be surfaced verbatim.
type ExternalCommandError struct {
	Command Command
	Result  Result
}

func (e *ExternalCommandError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("shell: %s exited with status %d", e.Command, e.Result.ExitCode)
	if out := strings.TrimSpace(e.Result.Combined); out != "" {
		msg += "\n" + out
	}
	return msg
}
