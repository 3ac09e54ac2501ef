// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"bookforge/internal/testutil"
)

func TestCompileArgs(t *testing.T) {
	engine := NewPandocEngine()

	got := engine.CompileArgs("book.md", "/out/book.epub", "book")
	want := []string{
		"book.md",
		"-o", "/out/book.epub",
		"--standalone",
		"--resource-path=.",
		"--mathml",
		"--metadata", "title=book",
	}
	if !slices.Equal(got, want) {
		t.Errorf("CompileArgs() = %v, want %v", got, want)
	}
}

func TestCompileCmd_RunsFromMarkdownDir(t *testing.T) {
	dir := t.TempDir()
	markdownPath := filepath.Join(dir, "book.md")
	epubPath := filepath.Join(t.TempDir(), "book.epub")

	engine := NewPandocEngine()
	cmd, err := engine.compileCmd(context.Background(), markdownPath, epubPath)
	if err != nil {
		t.Fatalf("compileCmd() error = %v", err)
	}

	if cmd.Dir != dir {
		t.Errorf("Dir = %q, want the markdown's directory %q", cmd.Dir, dir)
	}
	if cmd.Args[1] != "book.md" {
		t.Errorf("markdown arg = %q, want the base name", cmd.Args[1])
	}
	if cmd.Args[3] != epubPath {
		t.Errorf("epub arg = %q, want absolute %q", cmd.Args[3], epubPath)
	}
	if got, want := cmd.Args[len(cmd.Args)-1], "title=book"; got != want {
		t.Errorf("title arg = %q, want %q", got, want)
	}
}

func TestCompile_Success(t *testing.T) {
	dir := t.TempDir()
	markdownPath := filepath.Join(dir, "book.md")
	testutil.MustWriteFile(t, markdownPath, []byte("# Book"), 0o644)

	recorder := testutil.NewMockCommandRecorder()
	engine := NewPandocEngine(WithExecCommand(recorder.ContextCommandFunc(t)))

	err := engine.Compile(context.Background(), markdownPath, filepath.Join(dir, "book.epub"))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	inv := recorder.LastInvocation()
	if inv == nil {
		t.Fatal("expected pandoc to be invoked")
	}
	if inv.Name != PandocBinary {
		t.Errorf("invoked %q, want %q", inv.Name, PandocBinary)
	}
	if inv.Args[0] != "book.md" {
		t.Errorf("first arg = %q, want the markdown base name", inv.Args[0])
	}
	if !slices.Contains(inv.Args, "--mathml") {
		t.Errorf("args = %v, want --mathml present", inv.Args)
	}
}

func TestCompile_Failure(t *testing.T) {
	dir := t.TempDir()
	markdownPath := filepath.Join(dir, "book.md")
	testutil.MustWriteFile(t, markdownPath, []byte("# Book"), 0o644)

	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 1
	recorder.Stderr = "epub: cannot write output"
	engine := NewPandocEngine(WithExecCommand(recorder.ContextCommandFunc(t)))

	err := engine.Compile(context.Background(), markdownPath, filepath.Join(dir, "book.epub"))
	if err == nil {
		t.Fatal("Compile() expected error, got nil")
	}

	failed, ok := errors.AsType[*CompileFailedError](err)
	if !ok {
		t.Fatalf("Compile() error = %v, want *CompileFailedError", err)
	}
	if failed.MarkdownPath != markdownPath {
		t.Errorf("MarkdownPath = %q, want %q", failed.MarkdownPath, markdownPath)
	}
	if !strings.Contains(failed.Stderr, "cannot write output") {
		t.Errorf("Stderr = %q, want pandoc's error output", failed.Stderr)
	}
}

func TestCompile_BinaryMissing(t *testing.T) {
	dir := t.TempDir()
	markdownPath := filepath.Join(dir, "book.md")
	testutil.MustWriteFile(t, markdownPath, []byte("# Book"), 0o644)

	engine := NewPandocEngine()
	engine.binaryPath = "definitely-not-a-real-binary-9d1e"

	err := engine.Compile(context.Background(), markdownPath, filepath.Join(dir, "book.epub"))
	if err == nil {
		t.Fatal("Compile() expected error, got nil")
	}
	if _, ok := errors.AsType[*ToolNotFoundError](err); !ok {
		t.Errorf("Compile() error = %v, want *ToolNotFoundError", err)
	}
}

func TestVersion(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.Stdout = "pandoc 3.2\nFeatures: +server +lua\n"
	engine := NewPandocEngine(WithExecCommand(recorder.ContextCommandFunc(t)))

	got, err := engine.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if got != "pandoc 3.2" {
		t.Errorf("Version() = %q, want %q", got, "pandoc 3.2")
	}

	inv := recorder.LastInvocation()
	if inv == nil || !slices.Equal(inv.Args, []string{"--version"}) {
		t.Errorf("invocation = %+v, want pandoc --version", inv)
	}
}

func TestVersion_BinaryMissing(t *testing.T) {
	engine := NewPandocEngine()
	engine.binaryPath = "definitely-not-a-real-binary-77ab"

	_, err := engine.Version(context.Background())
	if err == nil {
		t.Fatal("Version() expected error, got nil")
	}

	notFound, ok := errors.AsType[*ToolNotFoundError](err)
	if !ok {
		t.Fatalf("Version() error = %v, want *ToolNotFoundError", err)
	}
	if notFound.Tool != "definitely-not-a-real-binary-77ab" {
		t.Errorf("Tool = %q, want the missing binary name", notFound.Tool)
	}
}
