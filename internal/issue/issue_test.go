// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	// Verify all IDs are unique and sequential
	ids := []Id{
		RuntimeDirCreateFailedId,
		ServiceManagerStartFailedId,
		SshdBinaryNotFoundId,
		SshdStartFailedId,
		EmbeddedServerStartFailedId,
		MarkerNotFoundId,
		PandocNotFoundId,
		ConfigLoadFailedId,
		NoInputFilesId,
		GpuProbeFailedId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	// Verify IDs start at 1 (iota + 1)
	if RuntimeDirCreateFailedId != 1 {
		t.Errorf("RuntimeDirCreateFailedId = %d, want 1", RuntimeDirCreateFailedId)
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(SshdBinaryNotFoundId)
	if issue == nil {
		t.Fatal("Get(SshdBinaryNotFoundId) returned nil")
	}

	if issue.Id() != SshdBinaryNotFoundId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), SshdBinaryNotFoundId)
	}
}

func TestIssue_MarkdownMsg(t *testing.T) {
	issue := Get(MarkerNotFoundId)
	if issue == nil {
		t.Fatal("Get(MarkerNotFoundId) returned nil")
	}

	msg := string(issue.MarkdownMsg())
	if !strings.Contains(msg, "marker_single") {
		t.Errorf("MarkerNotFoundId message does not mention marker_single:\n%s", msg)
	}
	if !strings.Contains(msg, "pip install") {
		t.Errorf("MarkerNotFoundId message does not suggest pip install:\n%s", msg)
	}
}

func TestIssue_ExtLinks(t *testing.T) {
	issue := Get(PandocNotFoundId)
	if issue == nil {
		t.Fatal("Get(PandocNotFoundId) returned nil")
	}

	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("PandocNotFoundId has no external links")
	}

	// Returned slice must be a copy; mutating it must not affect the registry.
	links[0] = "https://mutated.example.com"
	fresh := issue.ExtLinks()
	if fresh[0] == "https://mutated.example.com" {
		t.Error("ExtLinks() returned the internal slice instead of a clone")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		id   Id
		want bool
	}{
		{name: "runtime dir issue exists", id: RuntimeDirCreateFailedId, want: true},
		{name: "sshd start issue exists", id: SshdStartFailedId, want: true},
		{name: "config issue exists", id: ConfigLoadFailedId, want: true},
		{name: "unknown id returns nil", id: Id(9999), want: false},
		{name: "zero id returns nil", id: Id(0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Get(tt.id)
			if (got != nil) != tt.want {
				t.Errorf("Get(%d) = %v, want present=%v", tt.id, got, tt.want)
			}
			if got != nil && got.Id() != tt.id {
				t.Errorf("Get(%d).Id() = %d", tt.id, got.Id())
			}
		})
	}
}

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != len(issues) {
		t.Errorf("Values() returned %d issues, registry has %d", len(values), len(issues))
	}

	seen := make(map[Id]bool)
	for _, issue := range values {
		if issue == nil {
			t.Fatal("Values() contains a nil issue")
		}
		if seen[issue.Id()] {
			t.Errorf("Values() contains duplicate id %d", issue.Id())
		}
		seen[issue.Id()] = true
	}
}

func TestAllIssuesHaveContent(t *testing.T) {
	for id, issue := range issues {
		if strings.TrimSpace(string(issue.mdMsg)) == "" {
			t.Errorf("issue %d has empty markdown message", id)
		}
		if !strings.Contains(string(issue.mdMsg), "#") {
			t.Errorf("issue %d has no markdown heading", id)
		}
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	for id, issue := range issues {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", id, err)
			continue
		}
		if strings.TrimSpace(rendered) == "" {
			t.Errorf("issue %d rendered to empty output", id)
		}
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	issue := Get(MarkerNotFoundId)
	if issue == nil {
		t.Fatal("Get(MarkerNotFoundId) returned nil")
	}

	rendered, err := issue.Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(rendered, "See also") {
		t.Error("rendered output missing 'See also' section for an issue with links")
	}
}
