package state

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenPath(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertLibraryReplaces(t *testing.T) {
	db := openTestDB(t)
	if err := db.UpsertLibrary(Library{Name: "Forest", Source: "http://x/forest.zip", Path: "/lib/Forest", Kind: "zip"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertLibrary(Library{Name: "Forest", Source: "/art/Forest", Path: "/art/Forest", Kind: "dir"}); err != nil {
		t.Fatal(err)
	}
	libs, err := db.ListLibraries()
	if err != nil {
		t.Fatal(err)
	}
	if len(libs) != 1 || libs[0].Path != "/art/Forest" || libs[0].Kind != "dir" {
		t.Fatalf("unexpected libraries: %+v", libs)
	}
	got, err := db.GetLibrary("Forest")
	if err != nil || got == nil || got.Source != "/art/Forest" {
		t.Fatalf("GetLibrary: %+v err=%v", got, err)
	}
	if none, err := db.GetLibrary("Castle"); err != nil || none != nil {
		t.Fatalf("expected nil for unknown library, got %+v err=%v", none, err)
	}
}

func TestLibraryNamesIncludesLibraryRootDirs(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Dungeon"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	db.SetLibraryRoot(root)
	_ = db.UpsertLibrary(Library{Name: "Forest", Source: "s", Path: "/p"})

	names, err := db.LibraryNames()
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "Dungeon" || names[1] != "Forest" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestLibraryNamesMissingRoot(t *testing.T) {
	db := openTestDB(t)
	db.SetLibraryRoot(filepath.Join(t.TempDir(), "absent"))
	names, err := db.LibraryNames()
	if err != nil || len(names) != 0 {
		t.Fatalf("names=%v err=%v", names, err)
	}
}

func TestInstallHistoryNewestFirst(t *testing.T) {
	db := openTestDB(t)
	_ = db.RecordInstall(InstallRow{BatchID: "b1", Name: "A", Status: StatusInstalled, Size: 10})
	_ = db.RecordInstall(InstallRow{BatchID: "b1", Name: "B", Status: StatusFailed, LastError: "boom"})
	rows, err := db.ListInstalls(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Name != "B" || rows[0].LastError != "boom" || rows[1].Size != 10 {
		t.Fatalf("unexpected history: %+v", rows)
	}
	one, _ := db.ListInstalls(1)
	if len(one) != 1 {
		t.Fatalf("limit ignored: %d rows", len(one))
	}
}

func TestPruneMissing(t *testing.T) {
	db := openTestDB(t)
	keep := t.TempDir()
	_ = db.UpsertLibrary(Library{Name: "Keep", Source: keep, Path: keep})
	_ = db.UpsertLibrary(Library{Name: "Gone", Source: "x", Path: filepath.Join(keep, "nope")})
	n, err := db.PruneMissing()
	if err != nil || n != 1 {
		t.Fatalf("pruned=%d err=%v", n, err)
	}
	if err := db.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	if err := db.Vacuum(); err != nil {
		t.Fatalf("vacuum: %v", err)
	}
	names, _ := db.LibraryNames()
	if len(names) != 1 || names[0] != "Keep" {
		t.Fatalf("unexpected names after prune: %v", names)
	}
}
