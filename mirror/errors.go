package mirror

import (
	"errors"
	"fmt"

	"github.com/utilitywarehouse/lohr/internal/utils"
)

// git operations performed by a job
const (
	OpCloneMirror     = "clone-mirror"
	OpRemoteUpdate    = "remote-update"
	OpPushMirror      = "push-mirror"
	OpReadControlFile = "read-control-file"
)

// ProcessError is returned when git command of a job fails
type ProcessError struct {
	Op     string // one of the Op* constants
	Repo   string // full name of the repository
	Remote string // push target, only set for push-mirror
	Err    error
}

func (e *ProcessError) Error() string {
	target := e.Repo
	if e.Remote != "" {
		target = fmt.Sprintf("%s remote:%s", e.Repo, e.Remote)
	}
	var cmdErr *utils.CommandError
	if errors.As(e.Err, &cmdErr) {
		return fmt.Sprintf("%s failed repo:%s: %s, stderr:\n%s", e.Op, target, cmdErr.ExitStatus(), cmdErr.Stderr)
	}
	return fmt.Sprintf("%s failed repo:%s err:%v", e.Op, target, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// LogAttrs returns slog attributes describing the failure
func (e *ProcessError) LogAttrs() []any {
	attrs := []any{"op", e.Op}
	if e.Remote != "" {
		attrs = append(attrs, "remote", e.Remote)
	}
	var cmdErr *utils.CommandError
	if errors.As(e.Err, &cmdErr) {
		attrs = append(attrs, "exit", cmdErr.ExitStatus(), "stderr", cmdErr.Stderr)
	}
	return attrs
}

// RemoteResolutionError is returned when the control file exists but can't be
// read, it aborts the job instead of falling back to default remotes.
type RemoteResolutionError struct {
	Path string // path of the local mirror
	Err  error
}

func (e *RemoteResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve remotes of %s from %s err:%v", e.Path, ControlFile, e.Err)
}

func (e *RemoteResolutionError) Unwrap() error {
	return e.Err
}

// LogAttrs returns slog attributes describing the failure
func (e *RemoteResolutionError) LogAttrs() []any {
	var pErr *ProcessError
	if errors.As(e.Err, &pErr) {
		return pErr.LogAttrs()
	}
	return []any{"op", OpReadControlFile}
}
