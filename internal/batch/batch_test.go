package batch

import (
	"errors"
	"testing"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/resolver"
)

func TestParseAndResolve(t *testing.T) {
	dir := t.TempDir()
	f, err := Parse([]byte(`version: 1
jobs:
  - mode: local
    path: ` + dir + `
  - mode: web
    name: Dungeon
    url: http://example.com/dungeon.zip
  - mode: catalog
    pick: [Castle, Forest]
`))
	if err != nil {
		t.Fatal(err)
	}
	if !f.NeedsCatalog() {
		t.Fatal("expected catalog job to be detected")
	}
	store, err := catalog.Parse("A|Forest|forest.zip|10\nB|Castle|castle.zip|20\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := f.Resolve(store, "http://lib/1.3")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[1].Name != "Dungeon" || rows[2].Name != "Castle" || rows[3].Path != "http://lib/1.3/forest.zip" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"version": "version: 2\njobs:\n  - mode: web\n",
		"empty":   "version: 1\njobs: []\n",
		"mode":    "version: 1\njobs:\n  - mode: ftp\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestResolveStopsAtInvalidJob(t *testing.T) {
	f, err := Parse([]byte("version: 1\njobs:\n  - mode: web\n    name: \"\"\n    url: http://x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Resolve(nil, ""); !errors.Is(err, resolver.ErrMissingName) {
		t.Fatalf("expected missing-name, got %v", err)
	}
}

func TestPickUnknownName(t *testing.T) {
	store, _ := catalog.Parse("A|Forest|forest.zip|10\n", nil)
	if _, err := Pick(store, []string{"Nope"}); err == nil {
		t.Fatal("expected error for unknown pick")
	}
	if _, err := Pick(nil, []string{"Forest"}); err == nil {
		t.Fatal("expected error without a catalog")
	}
}
