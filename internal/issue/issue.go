// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RuntimeDirCreateFailedId Id = iota + 1
	ServiceManagerStartFailedId
	SshdBinaryNotFoundId
	SshdStartFailedId
	EmbeddedServerStartFailedId
	MarkerNotFoundId
	PandocNotFoundId
	ConfigLoadFailedId
	NoInputFilesId
	GpuProbeFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // links into our own docs
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	runtimeDirCreateFailedIssue = &Issue{
		id: RuntimeDirCreateFailedId,
		mdMsg: `
# Could not create the SSH runtime directory!

sshd refuses to start without its privilege-separation directory
(usually /var/run/sshd), and we could not create it.

## Common causes:
- The container runs with a read-only root filesystem
- /var/run is mounted from a volume without write permission
- The entrypoint runs as a non-root user

## Things you can try:
- Drop the ` + "`--read-only`" + ` flag, or add a tmpfs:
~~~
$ docker run --read-only --tmpfs /var/run ...
~~~
- Run the entrypoint as root (sshd needs it anyway)
- Point the entrypoint at a writable directory:
~~~
$ bookforge entrypoint --runtime-dir /tmp/sshd -- mycmd
~~~`,
	}

	serviceManagerStartFailedIssue = &Issue{
		id: ServiceManagerStartFailedId,
		mdMsg: `
# The service manager failed to start the SSH service!

` + "`service <name> start`" + ` returned a non-zero status. The container
stays unreachable over SSH, so startup was aborted.

## Common causes:
- The SSH service has a different name on this distribution
  (Debian/Ubuntu: ` + "`ssh`" + `, RHEL/Fedora: ` + "`sshd`" + `)
- openssh-server is not installed in the image
- sshd's config is invalid (run ` + "`sshd -t`" + ` to check)

## Things you can try:
- Set the right service name:
~~~
$ bookforge entrypoint --ssh-service sshd -- mycmd
~~~
- Install the server in your Dockerfile:
~~~dockerfile
RUN apt-get update && apt-get install -y openssh-server
~~~`,
	}

	sshdBinaryNotFoundIssue = &Issue{
		id: SshdBinaryNotFoundId,
		mdMsg: `
# No way to start an SSH daemon!

No service manager was found on PATH and the sshd binary does not
exist either, so the container would be unreachable.

## Things you can try:
- Install the server in your Dockerfile:
~~~dockerfile
RUN apt-get update && apt-get install -y openssh-server
~~~
- Point at a non-standard binary location:
~~~
$ bookforge entrypoint --sshd-path /opt/sshd/sbin/sshd -- mycmd
~~~
- Use the built-in SSH server instead (no OpenSSH needed):
~~~
$ bookforge entrypoint --ssh-mode embedded -- mycmd
~~~`,
	}

	sshdStartFailedIssue = &Issue{
		id: SshdStartFailedId,
		mdMsg: `
# The SSH daemon failed to start!

Invoking sshd directly returned a non-zero status. The container
stays unreachable over SSH, so startup was aborted.

## Common causes:
- Host keys are missing (run ` + "`ssh-keygen -A`" + ` in the image build)
- The privilege-separation directory is missing or has wrong permissions
- Another process already listens on port 22

## Things you can try:
- Generate host keys in your Dockerfile:
~~~dockerfile
RUN ssh-keygen -A
~~~
- Check the daemon config:
~~~
$ /usr/sbin/sshd -t
~~~`,
	}

	embeddedServerStartFailedIssue = &Issue{
		id: EmbeddedServerStartFailedId,
		mdMsg: `
# The built-in SSH server failed to start!

The embedded server could not bind its listen address or load its
host key.

## Things you can try:
- Check nothing else listens on the configured port
- Pick another port:
~~~
$ bookforge entrypoint --ssh-mode embedded --ssh-port 2222 -- mycmd
~~~
- Remove a stale host key so a fresh one is generated:
~~~
$ rm ~/.config/bookforge/ssh_host_ed25519
~~~`,
	}

	markerNotFoundIssue = &Issue{
		id: MarkerNotFoundId,
		mdMsg: `
# marker_single not found!

PDF conversion needs the marker CLI (marker-pdf) on PATH.

## Things you can try:
- Install it next to this tool:
~~~
$ pip install marker-pdf
~~~
- In a Dockerfile:
~~~dockerfile
RUN pip install --no-cache-dir marker-pdf
~~~
- Verify the install:
~~~
$ marker_single --help
~~~`,
		extLinks: []HttpLink{"https://github.com/datalab-to/marker"},
	}

	pandocNotFoundIssue = &Issue{
		id: PandocNotFoundId,
		mdMsg: `
# pandoc not found!

EPUB assembly needs pandoc on PATH.

## Things you can try:
- Debian/Ubuntu:
~~~
$ apt-get install -y pandoc
~~~
- macOS:
~~~
$ brew install pandoc
~~~
- Verify the install:
~~~
$ pandoc --version
~~~`,
		extLinks: []HttpLink{"https://pandoc.org/installing.html"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the bookforge configuration file.

## Configuration file locations:
- Linux: ~/.config/bookforge/config.cue
- macOS: ~/Library/Application Support/bookforge/config.cue
- Override: --config flag or BOOKFORGE_CONFIG

## Things you can try:
- Check the CUE syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/bookforge/config.cue
~~~

## Example configuration:
~~~cue
ssh: {
	mode: "auto"
	service_name: "ssh"
}

convert: {
	output_dir: "."
	smart_ocr: true
}
~~~`,
	}

	noInputFilesIssue = &Issue{
		id: NoInputFilesId,
		mdMsg: `
# No PDF files to convert!

The input directory contains no *.pdf files.

## Things you can try:
- Check the directory path for typos
- Make sure the files carry a .pdf extension (matching is case-insensitive)
- Pass a single file instead of a directory:
~~~
$ bookforge convert /books/mybook.pdf
~~~`,
	}

	gpuProbeFailedIssue = &Issue{
		id: GpuProbeFailedId,
		mdMsg: `
# GPU probe failed!

nvidia-smi exists but did not report usable VRAM, so conversion
falls back to CPU sizing (slower, but correct).

## Things you can try:
- Run the container with GPU access:
~~~
$ docker run --gpus all ...
~~~
- Force CPU mode to silence this probe:
~~~
$ bookforge convert --force-cpu /books
~~~`,
	}

	issues = map[Id]*Issue{
		runtimeDirCreateFailedIssue.Id():    runtimeDirCreateFailedIssue,
		serviceManagerStartFailedIssue.Id(): serviceManagerStartFailedIssue,
		sshdBinaryNotFoundIssue.Id():        sshdBinaryNotFoundIssue,
		sshdStartFailedIssue.Id():           sshdStartFailedIssue,
		embeddedServerStartFailedIssue.Id(): embeddedServerStartFailedIssue,
		markerNotFoundIssue.Id():            markerNotFoundIssue,
		pandocNotFoundIssue.Id():            pandocNotFoundIssue,
		configLoadFailedIssue.Id():          configLoadFailedIssue,
		noInputFilesIssue.Id():              noInputFilesIssue,
		gpuProbeFailedIssue.Id():            gpuProbeFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
