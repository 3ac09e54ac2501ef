// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"bookforge/internal/convert"
	"bookforge/internal/issue"
	"bookforge/internal/sshd"

	"github.com/charmbracelet/log"
)

// renderIssue writes the rendered help card for an issue catalog entry.
// The caller has already surfaced the error itself, so rendering problems
// are logged and swallowed rather than replacing the real failure.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		log.Warn("failed to render issue card", "id", id, "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// entrypointIssue maps a fatal bootstrap error to its issue catalog entry.
// The bootstrap has exactly two fatal steps: creating the runtime directory
// and starting the SSH daemon, so anything that is not a daemon start
// failure is a runtime directory problem.
func entrypointIssue(err error) issue.Id {
	startErr, ok := errors.AsType[*sshd.DaemonStartFailedError](err)
	if !ok {
		return issue.RuntimeDirCreateFailedId
	}

	switch startErr.Method {
	case sshd.MethodManaged:
		return issue.ServiceManagerStartFailedId
	case sshd.MethodDirect:
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return issue.SshdBinaryNotFoundId
		}
		return issue.SshdStartFailedId
	default:
		return issue.EmbeddedServerStartFailedId
	}
}

// convertIssue maps a conversion pipeline error to its issue catalog entry.
// It returns 0 when no catalog entry applies and the plain error text is
// all the help there is.
func convertIssue(err error) issue.Id {
	if _, ok := errors.AsType[*convert.NoInputFilesError](err); ok {
		return issue.NoInputFilesId
	}
	if toolErr, ok := errors.AsType[*convert.ToolNotFoundError](err); ok {
		switch toolErr.Tool {
		case convert.MarkerBinary:
			return issue.MarkerNotFoundId
		case convert.PandocBinary:
			return issue.PandocNotFoundId
		}
	}
	return 0
}
