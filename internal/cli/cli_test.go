package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pakt-pm/pakt/pkg/manifest"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func TestAddWithExplicitVersion(t *testing.T) {
	dir := inTempDir(t)

	if err := runCommand(t, "add", "left-pad@^1.3.0"); err != nil {
		t.Fatalf("add: %v", err)
	}

	m, err := manifest.Load(filepath.Join(dir, manifest.DefaultFile))
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if spec, _ := m.Dependencies.Get("left-pad"); spec != "^1.3.0" {
		t.Errorf("left-pad spec = %q, want ^1.3.0", spec)
	}
}

func TestAddUpdatesExistingEntryInPlace(t *testing.T) {
	dir := inTempDir(t)

	m := manifest.New()
	m.Name = "demo"
	m.Dependencies.Set("first", "^1.0.0")
	m.Dependencies.Set("second", "^1.0.0")
	if err := m.Save(manifest.DefaultFile); err != nil {
		t.Fatal(err)
	}

	if err := runCommand(t, "add", "first@^2.0.0"); err != nil {
		t.Fatalf("add: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, manifest.DefaultFile))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Index(text, `"first"`) > strings.Index(text, `"second"`) {
		t.Errorf("entry order changed:\n%s", text)
	}
	loaded, err := manifest.Load(manifest.DefaultFile)
	if err != nil {
		t.Fatal(err)
	}
	if spec, _ := loaded.Dependencies.Get("first"); spec != "^2.0.0" {
		t.Errorf("first spec = %q, want ^2.0.0", spec)
	}
}

func TestAddRejectsMalformedArgument(t *testing.T) {
	inTempDir(t)

	if err := runCommand(t, "add", "not a package!!"); err == nil {
		t.Error("add accepted a malformed package argument")
	}
}

func TestInstallWithoutManifest(t *testing.T) {
	inTempDir(t)

	err := runCommand(t, "install")
	if err == nil {
		t.Fatal("install succeeded without package.json")
	}
	if !strings.Contains(err.Error(), "Initialize your project first") {
		t.Errorf("error = %v, want init hint", err)
	}
}

func TestDownloadModelQuitsWhenComplete(t *testing.T) {
	m := newDownloadModel(2)

	next, cmd := m.Update(itemDoneMsg{done: 1, total: 2})
	if cmd != nil {
		t.Error("model quit before all items finished")
	}

	_, cmd = next.Update(itemDoneMsg{done: 2, total: 2})
	if cmd == nil {
		t.Fatal("model did not quit after the last item")
	}
}

func TestDownloadModelFinishedMessage(t *testing.T) {
	m := newDownloadModel(5)
	_, cmd := m.Update(downloadsFinishedMsg{})
	if cmd == nil {
		t.Error("finished message did not quit the model")
	}
}

func TestDownloadModelView(t *testing.T) {
	m := newDownloadModel(4)
	next, _ := m.Update(itemDoneMsg{done: 2, total: 4})
	view := next.(downloadModel).View()
	if !strings.Contains(view, "2/4 packages") {
		t.Errorf("view = %q", view)
	}
}
