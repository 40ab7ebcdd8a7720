package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jxwalker/resfetch/internal/batch"
	"github.com/jxwalker/resfetch/internal/catalog"
	ferrors "github.com/jxwalker/resfetch/internal/errors"
	"github.com/jxwalker/resfetch/internal/install"
	"github.com/jxwalker/resfetch/internal/lockfile"
	"github.com/jxwalker/resfetch/internal/resolver"
)

func handleInstall(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	a, err := newApp(args, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ic := args.Install
	var mode resolver.Mode
	var form resolver.Form
	set := 0
	if strings.TrimSpace(ic.Local) != "" {
		mode, form.LocalDirectory = resolver.Local, ic.Local
		set++
	}
	if ic.WebName != "" || ic.URL != "" {
		mode, form.URLName, form.URL = resolver.Web, ic.WebName, ic.URL
		set++
	}
	if len(ic.Pick) > 0 {
		mode = resolver.Catalog
		st, err := loadCatalog(ctx, a)
		if err != nil {
			return err
		}
		if form.Selected, err = batch.Pick(st, ic.Pick); err != nil {
			return err
		}
		set++
	}
	if set != 1 {
		return errors.New("choose exactly one source: --local DIR, --web-name NAME --url URL, or --pick NAME...")
	}

	rows, err := resolver.Resolve(mode, form, a.cfg.Catalog.BaseURL)
	if err != nil {
		return validationError(err)
	}
	return runRows(ctx, a, rows, stdout)
}

func handleBatch(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	f, err := batch.Load(args.Batch.File)
	if err != nil {
		return fmt.Errorf("load batch %s: %w", args.Batch.File, err)
	}
	a, err := newApp(args, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var st *catalog.Store
	if f.NeedsCatalog() {
		if st, err = loadCatalog(ctx, a); err != nil {
			return err
		}
	}
	rows, err := f.Resolve(st, a.cfg.Catalog.BaseURL)
	if err != nil {
		return validationError(err)
	}
	return runRows(ctx, a, rows, stdout)
}

// loadCatalog fetches the catalog for non-interactive commands.
func loadCatalog(ctx context.Context, a *app) (*catalog.Store, error) {
	st, err := a.fetcher().Load(ctx)
	if err != nil {
		a.log.Debugf("catalog load: %v", err)
		return nil, ferrors.NewFriendlyError(catalog.UnavailableMessage,
			"Check catalog.list_url in your config or the RESFETCH_CATALOG_URL variable, then run 'resfetch doctor'").WithDetails(err)
	}
	return st, nil
}

func validationError(err error) error {
	var ve *resolver.ValidationError
	if errors.As(err, &ve) {
		return ferrors.NewFriendlyError(ve.Message(), "Nothing was installed.").WithDetails(err)
	}
	return err
}

// runRows installs rows as one batch under the data-root lock. The batch runs
// in the background; notices are handed back here and printed as they arrive.
func runRows(ctx context.Context, a *app, rows []catalog.Row, w io.Writer) error {
	lock, err := lockfile.Acquire(lockfile.ForDataRoot(a.cfg.General.DataRoot))
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.log.Warnf("%v", err)
		}
	}()

	notices := make(chan install.Notice, len(rows))
	done := a.pipeline(func(n install.Notice) { notices <- n }).Start(ctx, rows)

	var rep install.Report
	for waiting := true; waiting; {
		select {
		case n := <-notices:
			printNotice(w, n)
		case rep = <-done:
			waiting = false
		}
	}
	for drained := false; !drained; {
		select {
		case n := <-notices:
			printNotice(w, n)
		default:
			drained = true
		}
	}

	for _, name := range rep.Installed {
		fmt.Fprintf(w, "Added %s\n", name)
	}
	fmt.Fprintf(w, "%d of %d libraries added\n", len(rep.Installed), len(rows))
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d of %d libraries could not be added (see 'resfetch history')", len(rep.Failed), len(rows))
	}
	return nil
}
