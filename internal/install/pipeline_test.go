package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jxwalker/resfetch/internal/catalog"
	"github.com/jxwalker/resfetch/internal/config"
	"github.com/jxwalker/resfetch/internal/downloader"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/placer"
	"github.com/jxwalker/resfetch/internal/state"
	"github.com/jxwalker/resfetch/internal/testutil"
)

type fakeDownloader struct {
	dir   string
	fail  map[string]error
	calls []string
	paths []string
}

func (f *fakeDownloader) DownloadTemp(ctx context.Context, url string) (*downloader.Download, error) {
	f.calls = append(f.calls, url)
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	p := filepath.Join(f.dir, filepath.Base(url)+".part")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		return nil, err
	}
	f.paths = append(f.paths, p)
	return &downloader.Download{URL: url, Path: p, Size: 7}, nil
}

type fakeInstaller struct {
	fail  map[string]error
	calls []string
}

func (f *fakeInstaller) Install(name, src, origin string) (string, error) {
	f.calls = append(f.calls, name)
	if err := f.fail[name]; err != nil {
		return "", err
	}
	return src, nil
}

type historyLog struct{ rows []state.InstallRow }

func (h *historyLog) RecordInstall(r state.InstallRow) error {
	h.rows = append(h.rows, r)
	return nil
}

func remote(name string) catalog.Row {
	return catalog.NewRow("A", name, "http://library.example/packs/"+name+".zip", 10)
}

func TestRunIsolatesFailingRow(t *testing.T) {
	dl := &fakeDownloader{dir: t.TempDir(), fail: map[string]error{
		remote("Two").Path: errors.New("connection reset"),
	}}
	inst := &fakeInstaller{}
	hist := &historyLog{}
	var notices []Notice
	p := &Pipeline{Downloader: dl, Installer: inst, State: hist, Log: logging.Discard(),
		Notify: func(n Notice) { notices = append(notices, n) }}

	rep := p.Run(context.Background(), []catalog.Row{remote("One"), remote("Two"), remote("Three")})

	if len(dl.calls) != 3 {
		t.Fatalf("expected all three rows attempted, got %v", dl.calls)
	}
	if len(notices) != 1 || notices[0].Row.Name != "Two" {
		t.Fatalf("expected exactly one notice for Two, got %+v", notices)
	}
	if len(rep.Installed) != 2 || rep.Installed[0] != "One" || rep.Installed[1] != "Three" {
		t.Fatalf("unexpected installed list: %v", rep.Installed)
	}
	if len(rep.Failed) != 1 || rep.BatchID == "" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(hist.rows) != 3 || hist.rows[1].Status != state.StatusFailed || hist.rows[1].BatchID != rep.BatchID {
		t.Fatalf("unexpected history: %+v", hist.rows)
	}
	for _, p := range dl.paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("temp file leaked: %s", p)
		}
	}
}

func TestRunRemovesTempFileWhenInstallFails(t *testing.T) {
	dl := &fakeDownloader{dir: t.TempDir()}
	inst := &fakeInstaller{fail: map[string]error{"One": placer.ErrBadPath}}
	p := &Pipeline{Downloader: dl, Installer: inst}

	rep := p.Run(context.Background(), []catalog.Row{remote("One")})
	if len(rep.Failed) != 1 || !errors.Is(rep.Failed[0].Err, placer.ErrBadPath) {
		t.Fatalf("expected bad-path failure, got %+v", rep.Failed)
	}
	if rep.Failed[0].Message == "" {
		t.Fatal("notice should carry a user message")
	}
	if len(dl.paths) != 1 {
		t.Fatalf("expected one download, got %d", len(dl.paths))
	}
	if _, err := os.Stat(dl.paths[0]); !os.IsNotExist(err) {
		t.Fatal("temp file must be removed after a failed install")
	}
}

func TestRunLocalRowSkipsDownload(t *testing.T) {
	dl := &fakeDownloader{dir: t.TempDir()}
	inst := &fakeInstaller{}
	p := &Pipeline{Downloader: dl, Installer: inst}
	dir := t.TempDir()
	rep := p.Run(context.Background(), []catalog.Row{{Artist: "local", Name: "MyLib", Path: dir, Size: catalog.UnknownSize}})
	if len(dl.calls) != 0 {
		t.Fatalf("local row must not download: %v", dl.calls)
	}
	if len(inst.calls) != 1 || len(rep.Installed) != 1 {
		t.Fatalf("local row not installed: %+v", rep)
	}
}

func TestStartDeliversReport(t *testing.T) {
	p := &Pipeline{Downloader: &fakeDownloader{dir: t.TempDir()}, Installer: &fakeInstaller{}}
	ch := p.Start(context.Background(), []catalog.Row{remote("One")})
	select {
	case rep := <-ch:
		if len(rep.Installed) != 1 {
			t.Fatalf("unexpected report %+v", rep)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("report not delivered")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after the report")
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := testutil.NewMockHTTPServer()
	defer srv.Close()
	srv.AddResponse("/1.3/forest.zip", testutil.MockResponse{StatusCode: 200, Body: string(testutil.ZipBytes(t, map[string]string{"tree.png": "tree"}))})

	home := t.TempDir()
	cfg := config.Default(home)
	cfg.General.TempRoot = filepath.Join(home, "tmp")
	db := testutil.TestDB(t)
	db.SetLibraryRoot(cfg.General.LibraryRoot)
	p := &Pipeline{
		Downloader: downloader.New(cfg, logging.Discard(), nil),
		Installer:  placer.New(cfg, db, logging.Discard()),
		State:      db,
	}
	rows := []catalog.Row{
		catalog.NewRow("A", "Forest", srv.URL+"/1.3/forest.zip", 100),
		catalog.NewRow("B", "Missing", srv.URL+"/1.3/missing.zip", 100),
	}
	rep := p.Run(context.Background(), rows)
	if len(rep.Installed) != 1 || len(rep.Failed) != 1 || rep.Failed[0].Row.Name != "Missing" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, err := os.Stat(filepath.Join(cfg.General.LibraryRoot, "Forest", "tree.png")); err != nil {
		t.Fatalf("library not extracted: %v", err)
	}
	entries, _ := os.ReadDir(cfg.General.TempRoot)
	if len(entries) != 0 {
		t.Fatalf("temp root should be empty, found %d entries", len(entries))
	}
	names, _ := db.LibraryNames()
	if len(names) != 1 || names[0] != "Forest" {
		t.Fatalf("unexpected installed names %v", names)
	}
	hist, _ := db.ListInstalls(0)
	if len(hist) != 2 {
		t.Fatalf("expected two history rows, got %d", len(hist))
	}
}
