package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jxwalker/resfetch/internal/catalog"
)

func handleCatalog(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	a, err := newApp(args, false)
	if err != nil {
		return err
	}
	defer a.Close()

	f := a.fetcher()
	if args.Catalog.All {
		f.Installed = nil
	}
	st, err := f.Load(ctx)
	if err != nil {
		fmt.Fprintln(stdout, catalog.UnavailableMessage)
		a.log.Errorf("catalog: %v", err)
		return nil
	}

	q := strings.TrimSpace(args.Catalog.Filter)
	fmt.Fprintf(stdout, "%-20s  %-32s  %10s\n", "ARTIST", "ART PACK", "SIZE")
	shown := 0
	for _, r := range st.Rows() {
		if q != "" && !fuzzy.MatchFold(q, r.Name) && !fuzzy.MatchFold(q, r.Artist) {
			continue
		}
		fmt.Fprintf(stdout, "%-20s  %-32s  %10s\n", clip(r.Artist, 20), clip(r.Name, 32), r.SizeString())
		shown++
	}
	fmt.Fprintf(stdout, "%d of %d libraries\n", shown, st.Len())
	return nil
}

func handleList(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	a, err := newApp(args, false)
	if err != nil {
		return err
	}
	defer a.Close()

	libs, err := a.db.ListLibraries()
	if err != nil {
		return err
	}
	if args.List.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(libs)
	}
	if len(libs) == 0 {
		fmt.Fprintln(stdout, "No libraries installed.")
		return nil
	}
	for _, l := range libs {
		fmt.Fprintf(stdout, "%-32s  %-7s  %-14s  %s\n", clip(l.Name, 32), l.Kind, humanize.Time(time.Unix(l.UpdatedAt, 0)), l.Path)
	}
	return nil
}

func handleHistory(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	a, err := newApp(args, false)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.db.ListInstalls(args.History.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No install history.")
		return nil
	}
	for _, r := range rows {
		size := "-"
		if r.Size > 0 {
			size = humanize.Bytes(uint64(r.Size))
		}
		line := fmt.Sprintf("%-14s  %-9s  %-32s  %8s", humanize.Time(time.Unix(r.CreatedAt, 0)), r.Status, clip(r.Name, 32), size)
		if r.LastError != "" {
			line += "  " + r.LastError
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
