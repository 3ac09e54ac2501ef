// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"io/fs"
	"os/exec"
	"testing"

	"bookforge/internal/convert"
	"bookforge/internal/issue"
	"bookforge/internal/sshd"
)

func TestEntrypointIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "runtime dir failure",
			err: issue.NewErrorContext().
				WithOperation("create ssh runtime directory").
				WithResource("/var/run/sshd").
				Wrap(fs.ErrPermission).
				BuildError(),
			want: issue.RuntimeDirCreateFailedId,
		},
		{
			name: "service manager start failed",
			err: &sshd.DaemonStartFailedError{
				Method: sshd.MethodManaged,
				Cause:  errors.New("exit status 1"),
			},
			want: issue.ServiceManagerStartFailedId,
		},
		{
			name: "sshd binary missing, wrapped the way the launcher does",
			err: issue.NewErrorContext().
				WithOperation("start ssh daemon").
				WithResource("/usr/sbin/sshd").
				Wrap(&sshd.DaemonStartFailedError{
					Method: sshd.MethodDirect,
					Cause:  &exec.Error{Name: "/usr/sbin/sshd", Err: exec.ErrNotFound},
				}).
				BuildError(),
			want: issue.SshdBinaryNotFoundId,
		},
		{
			name: "sshd binary path does not exist",
			err: &sshd.DaemonStartFailedError{
				Method: sshd.MethodDirect,
				Cause:  fs.ErrNotExist,
			},
			want: issue.SshdBinaryNotFoundId,
		},
		{
			name: "sshd exited non-zero",
			err: &sshd.DaemonStartFailedError{
				Method: sshd.MethodDirect,
				Cause:  errors.New("exit status 255"),
			},
			want: issue.SshdStartFailedId,
		},
		{
			name: "embedded server failed",
			err: &sshd.DaemonStartFailedError{
				Method: sshd.MethodEmbedded,
				Cause:  errors.New("bind: address already in use"),
			},
			want: issue.EmbeddedServerStartFailedId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := entrypointIssue(tt.err); got != tt.want {
				t.Errorf("entrypointIssue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvertIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "no input files",
			err:  &convert.NoInputFilesError{Path: "/books"},
			want: issue.NoInputFilesId,
		},
		{
			name: "marker missing",
			err: issue.NewErrorContext().
				WithOperation("locate the pdf extractor").
				Wrap(&convert.ToolNotFoundError{Tool: convert.MarkerBinary, Cause: exec.ErrNotFound}).
				BuildError(),
			want: issue.MarkerNotFoundId,
		},
		{
			name: "pandoc missing",
			err:  &convert.ToolNotFoundError{Tool: convert.PandocBinary, Cause: exec.ErrNotFound},
			want: issue.PandocNotFoundId,
		},
		{
			name: "unknown tool has no card",
			err:  &convert.ToolNotFoundError{Tool: "ghostscript", Cause: exec.ErrNotFound},
			want: 0,
		},
		{
			name: "plain error has no card",
			err:  errors.New("create output dir: permission denied"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := convertIssue(tt.err); got != tt.want {
				t.Errorf("convertIssue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderIssue(t *testing.T) {
	t.Parallel()

	t.Run("known id renders a card", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		renderIssue(&buf, issue.MarkerNotFoundId)
		if buf.Len() == 0 {
			t.Error("renderIssue() wrote nothing, want a rendered card")
		}
	})

	t.Run("unknown id renders nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		renderIssue(&buf, issue.Id(0))
		if buf.Len() != 0 {
			t.Errorf("renderIssue() wrote %q, want no output", buf.String())
		}
	})
}
