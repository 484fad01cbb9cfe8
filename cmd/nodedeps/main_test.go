package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nodedeps/internal/fstest"
	"nodedeps/internal/render"
)

var writePkg = fstest.WritePkg

func resetFlags() {
	flags = globalFlags{depth: -1}
	render.NoColor(true)
}

func TestRunTreePrintsResolvedDependency(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/a", `{"name":"a","version":"1.2.3"}`)

	var buf bytes.Buffer
	if err := runTree(&buf, []string{dir}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "a@^1.0.0 : 1.2.3") {
		t.Errorf("expected resolved dep line, got %q", out)
	}
}

func TestRunTreeWorkspaceBanners(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","workspaces":["packages/*"]}`)
	writePkg(t, dir, "packages/a", `{"name":"a","dependencies":{}}`)
	if err := os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runTree(&buf, []string{dir}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[WORKSPACE ROOT]") {
		t.Errorf("expected workspace root banner, got %q", out)
	}
	if !strings.Contains(out, "[WORKSPACE MEMBER]") {
		t.Errorf("expected workspace member banner, got %q", out)
	}
}

func TestRunDiffReportsAddedAndRemoved(t *testing.T) {
	resetFlags()
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"gone":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/gone", `{"name":"gone","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"new":"^2.0.0"}}`)
	writePkg(t, rightDir, "node_modules/new", `{"name":"new","version":"2.0.0"}`)

	var buf bytes.Buffer
	if err := runDiff(&buf, leftDir, rightDir); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[REMOVED] gone@^1.0.0") {
		t.Errorf("expected removed line, got %q", out)
	}
	if !strings.Contains(out, "[ADDED] new@^2.0.0") {
		t.Errorf("expected added line, got %q", out)
	}
}

func TestRunDiffNoDifferences(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	var buf bytes.Buffer
	if err := runDiff(&buf, dir, dir); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "no differences" {
		t.Errorf("expected 'no differences', got %q", buf.String())
	}
}

func TestRunWhyFindsPath(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/a", `{"name":"a","version":"1.0.0","dependencies":{"target":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/target", `{"name":"target","version":"1.0.0"}`)

	var buf bytes.Buffer
	if err := runWhy(&buf, dir, "target"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "root -> a -> target" {
		t.Errorf("unexpected why output: %q", buf.String())
	}
}

func TestRunTreeJSONSurfacesSkippedScopeWarnings(t *testing.T) {
	resetFlags()
	flags.json = true
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	badDir := filepath.Join(dir, "node_modules", "@scope", "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "package.json"), []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runTree(&buf, []string{dir}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), filepath.Join("@scope", "bad")) {
		t.Errorf("expected the skipped scoped package directory to appear in the JSON warnings, got %q", buf.String())
	}
}

func TestRunTreeMissingNodeModulesIsFatal(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{}}`)

	var buf bytes.Buffer
	if err := runTree(&buf, []string{dir}); err == nil {
		t.Fatal("expected an error when node_modules is missing")
	}
}
