package placer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/state"
	"github.com/jxwalker/resfetch/internal/testutil"
)

func newInstaller(t *testing.T, mode string) (*Installer, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "libraries")
	db := testutil.TestDB(t)
	db.SetLibraryRoot(root)
	return &Installer{Root: root, Mode: mode, Registry: db, Log: logging.Discard()}, root
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "pack.zip")
	if err := os.WriteFile(p, testutil.ZipBytes(t, files), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestInstallDirectoryInPlace(t *testing.T) {
	in, _ := newInstaller(t, ModeExtract)
	src := t.TempDir()
	dest, err := in.Install("MyLib", src, "")
	if err != nil {
		t.Fatal(err)
	}
	if dest != src {
		t.Fatalf("directory should be registered in place, got %s", dest)
	}
	lib, err := in.Registry.(*state.DB).GetLibrary("MyLib")
	if err != nil || lib == nil || lib.Kind != KindDir || lib.Path != src {
		t.Fatalf("not registered: %+v err=%v", lib, err)
	}
}

func TestInstallExtractsZip(t *testing.T) {
	in, root := newInstaller(t, ModeExtract)
	src := writeZip(t, map[string]string{"tokens/orc.png": "orc", "README": "hi"})
	dest, err := in.Install("Forest", src, "http://x/forest.zip")
	if err != nil {
		t.Fatal(err)
	}
	if dest != filepath.Join(root, "Forest") {
		t.Fatalf("unexpected dest %s", dest)
	}
	b, err := os.ReadFile(filepath.Join(dest, "tokens", "orc.png"))
	if err != nil || string(b) != "orc" {
		t.Fatalf("entry not extracted: %v %q", err, b)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("source must be left for the caller to remove")
	}
}

func TestInstallReplacesExisting(t *testing.T) {
	in, root := newInstaller(t, ModeExtract)
	if _, err := in.Install("Forest", writeZip(t, map[string]string{"old.png": "1"}), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := in.Install("Forest", writeZip(t, map[string]string{"new.png": "2"}), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "Forest", "old.png")); !os.IsNotExist(err) {
		t.Fatal("old contents should be replaced")
	}
	if _, err := os.Stat(filepath.Join(root, "Forest", "new.png")); err != nil {
		t.Fatal(err)
	}
}

func TestInstallCopiesNonZip(t *testing.T) {
	in, root := newInstaller(t, ModeExtract)
	src := testutil.TempFile(t, "download.part", "plain bytes")
	if _, err := in.Install("Notes", src, "http://x/files/notes.txt?sig=1"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(root, "Notes", "notes.txt"))
	if err != nil || string(b) != "plain bytes" {
		t.Fatalf("copy failed: %v %q", err, b)
	}
}

func TestInstallCopyMode(t *testing.T) {
	in, root := newInstaller(t, ModeCopy)
	src := writeZip(t, map[string]string{"a.png": "a"})
	dest, err := in.Install("Castle", src, "")
	if err != nil {
		t.Fatal(err)
	}
	if dest != filepath.Join(root, "Castle.zip") {
		t.Fatalf("unexpected dest %s", dest)
	}
}

func TestInstallRejectsZipSlip(t *testing.T) {
	in, root := newInstaller(t, ModeExtract)
	src := writeZip(t, map[string]string{"../../escape.txt": "x"})
	_, err := in.Install("Evil", src, "")
	if !errors.Is(err, ErrBadPath) {
		t.Fatalf("expected ErrBadPath, got %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("library root should be left clean, found %d entries", len(entries))
	}
}

func TestInstallRejectsBadName(t *testing.T) {
	in, _ := newInstaller(t, ModeExtract)
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if _, err := in.Install(name, t.TempDir(), ""); !errors.Is(err, ErrBadPath) {
			t.Errorf("name %q: expected ErrBadPath, got %v", name, err)
		}
	}
}

func TestInstallMissingSource(t *testing.T) {
	in, _ := newInstaller(t, ModeExtract)
	_, err := in.Install("Gone", filepath.Join(t.TempDir(), "missing.zip"), "")
	if err == nil || errors.Is(err, ErrBadPath) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}
