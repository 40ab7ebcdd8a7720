package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jxwalker/resfetch/internal/session"
	"github.com/jxwalker/resfetch/internal/tui"
)

func handleAdd(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("add needs an interactive terminal; use 'resfetch install' or 'resfetch batch' instead")
	}
	// the dialog owns the terminal, so logs go to a file
	a, err := newApp(args, true)
	if err != nil {
		return err
	}
	defer a.Close()

	s := session.New(a.fetcher(), a.cfg.Catalog.BaseURL)
	m := tui.New(tui.Options{Session: s, Compact: a.cfg.UI.Compact, Log: a.log, Ctx: ctx})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("dialog: %w", err)
	}
	rows, ok := m.Result()
	if !ok {
		fmt.Fprintln(stdout, "No libraries added.")
		return nil
	}
	return runRows(ctx, a, rows, stdout)
}
