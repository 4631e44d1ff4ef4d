package tool

import "fmt"

// Reasons a tool could not be resolved.
const (
	ReasonNotDeclared     = "not declared"
	ReasonNotRequired     = "not required in environment"
	ReasonDownload        = "download failed"
	ReasonExtract         = "extraction failed"
	ReasonMissingBinary   = "binary missing from archive"
	ReasonInstall         = "install failed"
	ReasonVersionMismatch = "version mismatch"
)

// ToolResolutionError reports a tool that is missing, cannot be provisioned,
// or reports a version other than the pinned one.
type ToolResolutionError struct {
	Tool   string
	Reason string
	Detail string
	Err    error
}

func (e *ToolResolutionError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("tool: %s: %s", e.Tool, e.Reason)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolResolutionError) Unwrap() error { return e.Err }

func resolutionError(name, reason string, err error, detailFormat string, args ...any) *ToolResolutionError {
	detail := ""
	if detailFormat != "" {
		detail = fmt.Sprintf(detailFormat, args...)
	}
	return &ToolResolutionError{Tool: name, Reason: reason, Detail: detail, Err: err}
}
