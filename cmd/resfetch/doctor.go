package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/jxwalker/resfetch/internal/config"
	ferrors "github.com/jxwalker/resfetch/internal/errors"
	"github.com/jxwalker/resfetch/internal/state"
	"github.com/jxwalker/resfetch/internal/system"
)

// Check represents a single diagnostic check
type Check struct {
	Name     string
	Run      func(ctx context.Context) CheckResult
	Critical bool // If true, failure means installs will not work
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
	Duration   time.Duration
}

func handleDoctor(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	cfg, cfgPath, cfgErr := loadConfig(args)
	fmt.Fprintln(stdout, "Running resfetch diagnostics...")
	fmt.Fprintln(stdout)

	checks := []Check{{
		Name:     "Config loads",
		Critical: true,
		Run: func(ctx context.Context) CheckResult {
			if cfgErr != nil {
				return CheckResult{Message: cfgErr.Error(), Suggestion: "Run 'resfetch config validate' for details"}
			}
			if _, err := os.Stat(cfgPath); err != nil {
				return CheckResult{Passed: true, Warning: true, Message: "No config file, using defaults", Suggestion: "Run 'resfetch config init' to write one"}
			}
			return CheckResult{Passed: true, Message: "Loaded " + cfgPath}
		},
	}}
	if cfg != nil {
		checks = append(checks,
			writableCheck("Data root writable", cfg.General.DataRoot),
			writableCheck("Library root writable", cfg.General.LibraryRoot),
			writableCheck("Temp root writable", cfg.TempDir()),
			Check{Name: "State database", Critical: true, Run: func(ctx context.Context) CheckResult { return checkState(cfg, args.Doctor.Fix) }},
			Check{Name: "Free space for libraries", Run: func(ctx context.Context) CheckResult { return checkSpace(cfg) }},
			Check{Name: "Catalog reachable", Run: func(ctx context.Context) CheckResult { return checkCatalog(ctx, cfg, args.Doctor.Verbose) }},
		)
	}

	results := make([]CheckResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			start := time.Now()
			r := c.Run(gctx)
			r.Duration = time.Since(start)
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	passed, failed, warned, critical := 0, 0, 0, false
	for i, c := range checks {
		r := results[i]
		symbol := "✓"
		switch {
		case !r.Passed:
			symbol = "✗"
			failed++
			critical = critical || c.Critical
		case r.Warning:
			symbol = "⚠"
			warned++
			passed++
		default:
			passed++
		}
		fmt.Fprintf(stdout, "%s %s", symbol, c.Name)
		if args.Doctor.Verbose {
			fmt.Fprintf(stdout, " (%.2fs)", r.Duration.Seconds())
		}
		fmt.Fprintln(stdout)
		if r.Message != "" {
			fmt.Fprintf(stdout, "  %s\n", r.Message)
		}
		if r.Suggestion != "" {
			for _, line := range strings.Split(r.Suggestion, "\n") {
				fmt.Fprintf(stdout, "  → %s\n", line)
			}
		}
	}

	fmt.Fprintf(stdout, "\nDiagnostic Summary:\n")
	fmt.Fprintf(stdout, "  Total checks: %d\n", len(checks))
	fmt.Fprintf(stdout, "  Passed:       %d\n", passed)
	fmt.Fprintf(stdout, "  Warnings:     %d\n", warned)
	fmt.Fprintf(stdout, "  Failed:       %d\n", failed)
	if critical {
		return fmt.Errorf("%d critical check(s) failed", failed)
	}
	return nil
}

func writableCheck(name, dir string) Check {
	return Check{Name: name, Critical: true, Run: func(ctx context.Context) CheckResult {
		if dir == "" {
			return CheckResult{Message: "not configured", Suggestion: "Set it in the general section of your config"}
		}
		if err := config.EnsureDir(dir, 0o755); err != nil {
			return CheckResult{Message: fmt.Sprintf("Cannot create %s: %v", dir, err), Suggestion: "Create manually: mkdir -p " + dir}
		}
		if err := tryWrite(dir); err != nil {
			return CheckResult{Message: fmt.Sprintf("Not writable: %v", err), Suggestion: "Fix permissions: chmod u+w " + dir}
		}
		return CheckResult{Passed: true, Message: "Writable: " + dir}
	}}
}

func tryWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".rf-wr-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func checkState(cfg *config.Config, fix bool) CheckResult {
	db, err := state.Open(cfg)
	if err != nil {
		return CheckResult{Message: fmt.Sprintf("Cannot open database: %v", err), Suggestion: "Check general.data_root permissions"}
	}
	defer db.Close()
	if err := db.CheckIntegrity(); err != nil {
		return CheckResult{Message: err.Error(), Suggestion: "Move " + db.Path + " aside; resfetch recreates it"}
	}
	missing, err := db.MissingLibraries()
	if err != nil {
		return CheckResult{Message: err.Error()}
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, l := range missing {
			names = append(names, l.Name)
		}
		sort.Strings(names)
		if fix {
			n, err := db.PruneMissing()
			if err != nil {
				return CheckResult{Message: fmt.Sprintf("Pruning missing libraries: %v", err)}
			}
			if err := db.Vacuum(); err != nil {
				return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Pruned %d entries, vacuum failed: %v", n, err)}
			}
			return CheckResult{Passed: true, Message: fmt.Sprintf("Pruned %d missing libraries: %s", n, strings.Join(names, ", "))}
		}
		return CheckResult{Passed: true, Warning: true,
			Message:    fmt.Sprintf("%d registered libraries are missing on disk: %s", len(missing), strings.Join(names, ", ")),
			Suggestion: "Add them again, or run 'resfetch doctor --fix' to forget them"}
	}
	return CheckResult{Passed: true, Message: "Database OK: " + db.Path}
}

func checkSpace(cfg *config.Config) CheckResult {
	dir := cfg.General.LibraryRoot
	if _, err := os.Stat(dir); err != nil {
		dir = cfg.General.DataRoot
	}
	ok, avail, err := system.HasSufficientSpace(dir, system.LowSpaceBytes)
	if err != nil {
		return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Could not check disk space: %v", err)}
	}
	if !ok {
		return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Low disk space: %s free", humanize.Bytes(avail))}
	}
	return CheckResult{Passed: true, Message: fmt.Sprintf("%s available", humanize.Bytes(avail))}
}

func checkCatalog(ctx context.Context, cfg *config.Config, verbose bool) CheckResult {
	if err := system.CheckEndpointReachable(ctx, cfg.Catalog.ListURL); err != nil {
		fe := ferrors.NetworkError(err)
		r := CheckResult{Passed: true, Warning: true,
			Message:    fmt.Sprintf("%s: %v", fe.Message, err),
			Suggestion: fe.Suggestion + "\nLocal and web installs still work; the catalog tab will show as unavailable"}
		if verbose {
			for k, v := range system.DetectProxySettings() {
				r.Suggestion += fmt.Sprintf("\n%s=%s", k, v)
			}
		}
		return r
	}
	return CheckResult{Passed: true, Message: "Reachable: " + cfg.Catalog.ListURL}
}
