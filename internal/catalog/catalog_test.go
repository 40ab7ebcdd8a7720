package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseRowTrimsFields(t *testing.T) {
	r, err := ParseRow("  Jonathan Roberts | Dungeon Tiles |packs/dungeon.zip| 2048000 ")
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	want := Row{Artist: "Jonathan Roberts", Name: "Dungeon Tiles", Path: "packs/dungeon.zip", Size: 2048000}
	if r != want {
		t.Fatalf("got %+v want %+v", r, want)
	}
}

func TestParseRowRejectsMalformed(t *testing.T) {
	lines := []string{
		"artist|name|path",
		"artist|name|path|12|extra",
		"artist|name|path|big",
		"artist|name|path|1.5",
		" |name|path|1",
		"artist| |path|1",
		"artist|name| |1",
	}
	for _, l := range lines {
		_, err := ParseRow(l)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseRow(%q) err=%v, want *ParseError", l, err)
		}
	}
}

func TestParseSkipsInstalledAndDuplicates(t *testing.T) {
	doc := strings.Join([]string{
		"A|Forest|forest.zip|10",
		"",
		"B|Castle|castle.zip|20",
		"C|Forest|forest2.zip|30",
		"D|Caves|caves.zip|40",
	}, "\r\n")
	st, err := Parse(doc, []string{"Castle"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rows := st.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].Name != "Forest" || rows[0].Path != "forest.zip" {
		t.Fatalf("first occurrence of Forest should win: %+v", rows[0])
	}
	if rows[1].Name != "Caves" {
		t.Fatalf("file order not preserved: %+v", rows)
	}
	if st.Contains("Castle") {
		t.Fatal("installed library should be skipped")
	}
}

func TestParseDedupIsCaseSensitive(t *testing.T) {
	st, err := Parse("A|forest|f.zip|1\n", []string{"Forest"})
	if err != nil {
		t.Fatal(err)
	}
	if st.Len() != 1 {
		t.Fatalf("case-different name should not be deduped, len=%d", st.Len())
	}
}

func TestParseFailsWholeDocument(t *testing.T) {
	st, err := Parse("A|Forest|forest.zip|10\nbroken line\nB|Castle|castle.zip|20\n", nil)
	if st != nil {
		t.Fatal("expected no store on parse failure")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Fatalf("expected line 2, got %d", pe.Line)
	}
}

func TestStoreRejectsDuplicateNames(t *testing.T) {
	st := NewStore()
	if !st.Add(NewRow("a", "x", "p", 1)) {
		t.Fatal("first add should succeed")
	}
	if st.Add(NewRow("b", "x", "q", 2)) {
		t.Fatal("duplicate name should be rejected")
	}
	st.Add(NewRow("c", "y", "r", 3))
	if st.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", st.Len())
	}
	if r, ok := st.Row(1); !ok || r.Name != "y" {
		t.Fatalf("Row(1)=%+v,%v", r, ok)
	}
	if _, ok := st.Row(5); ok {
		t.Fatal("out of range Row should report false")
	}
}

func TestIsRemote(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"http://library.rptools.net/1.3/forest.zip", true},
		{"https://example.com/x", true},
		{"/home/gm/art/Forest", false},
		{"relative/forest.zip", false},
		{"", false},
	}
	for _, c := range cases {
		if got := (Row{Path: c.path}).IsRemote(); got != c.want {
			t.Errorf("IsRemote(%q)=%v want %v", c.path, got, c.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		-1:         "unknown",
		999:        "999 bytes",
		1500:       "1 k",
		999999:     "999 k",
		1000000:    "1 mb",
		2500000000: "2,500 mb",
	}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Errorf("FormatSize(%d)=%q want %q", in, got, want)
		}
	}
}

func TestCells(t *testing.T) {
	r := NewRow("Artist", "Name", "p", 1500)
	if r.Cell(ColArtist).String() != "Artist" || r.Cell(ColName).String() != "Name" {
		t.Fatal("text cells mismatch")
	}
	if c := r.Cell(ColSize); c.Kind != KindSize || c.String() != "1 k" {
		t.Fatalf("size cell mismatch: %+v", c)
	}
	if !(Cell{Kind: KindSize, Size: 2}).Less(Cell{Kind: KindSize, Size: 10}) {
		t.Fatal("sizes should compare numerically")
	}
}

type fakeGetter struct {
	body  string
	err   error
	calls int
}

func (g *fakeGetter) GetString(ctx context.Context, url string) (string, error) {
	g.calls++
	return g.body, g.err
}

type fakeInstalled []string

func (f fakeInstalled) LibraryNames() ([]string, error) { return f, nil }

func TestFetcherPopulatesListing(t *testing.T) {
	g := &fakeGetter{body: "A|Forest|forest.zip|10\nB|Castle|castle.zip|20\n"}
	f := &Fetcher{ListURL: "http://x/list", Client: g, Installed: fakeInstalled{"Forest"}}
	l := f.Fetch(context.Background())
	if !l.Available() || l.Store.Len() != 1 {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if g.calls != 1 {
		t.Fatalf("expected one request, got %d", g.calls)
	}
}

func TestFetcherCollapsesFailures(t *testing.T) {
	for name, g := range map[string]*fakeGetter{
		"network": {err: errors.New("connection refused")},
		"parse":   {body: "A|Forest|forest.zip|lots\n"},
	} {
		t.Run(name, func(t *testing.T) {
			l := (&Fetcher{ListURL: "http://x/list", Client: g}).Fetch(context.Background())
			if l.Available() || l.Message != UnavailableMessage {
				t.Fatalf("expected unavailable placeholder, got %+v", l)
			}
		})
	}
}
