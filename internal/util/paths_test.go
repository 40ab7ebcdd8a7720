package util

import "testing"

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"foo/bar":           "foo-bar",
		"foo\\bar":          "foo-bar",
		"  spaced name  ":   "spaced-name",
		"Dungeon Tiles.zip": "Dungeon-Tiles.zip",
		"forest?type=zip":   "forest-type-zip",
		"":                  "download",
	}
	for in, want := range cases {
		got := SafeFileName(in)
		if got != want {
			t.Fatalf("SafeFileName(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNameWithoutExtension(t *testing.T) {
	cases := map[string]string{
		"/a/b/MyLib":       "MyLib",
		"/a/b/MyLib/":      "MyLib",
		"/art/Forest.pack": "Forest",
		"/art/.hidden":     ".hidden",
		"relative/Castle":  "Castle",
	}
	for in, want := range cases {
		if got := NameWithoutExtension(in); got != want {
			t.Errorf("NameWithoutExtension(%q)=%q want %q", in, got, want)
		}
	}
}
