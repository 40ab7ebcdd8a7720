package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/jxwalker/resfetch/internal/downloader"
	ferrors "github.com/jxwalker/resfetch/internal/errors"
)

var version = "dev"

type addCmd struct{}

type catalogCmd struct {
	Filter string `arg:"-f,--filter" help:"fuzzy filter on name or artist"`
	All    bool   `arg:"--all" help:"include libraries that are already installed"`
}

type installCmd struct {
	Local   string   `arg:"--local" placeholder:"DIR" help:"add a local directory as a library"`
	WebName string   `arg:"--web-name" placeholder:"NAME" help:"name for a library downloaded from --url"`
	URL     string   `arg:"--url" help:"address of a library archive"`
	Pick    []string `arg:"--pick" placeholder:"NAME" help:"catalog libraries to install, in order"`
}

type batchCmd struct {
	File string `arg:"positional,required" help:"YAML batch file"`
}

type listCmd struct {
	JSON bool `arg:"--json" help:"print JSON"`
}

type historyCmd struct {
	Limit int `arg:"-n,--limit" default:"20" help:"number of entries"`
}

type doctorCmd struct {
	Verbose bool `arg:"-v,--verbose" help:"show details for each check"`
	Fix     bool `arg:"--fix" help:"forget registered libraries that are missing on disk"`
}

type configValidateCmd struct{}
type configPrintCmd struct{}
type configInitCmd struct {
	Force bool `arg:"--force" help:"overwrite an existing file"`
}

type configCmd struct {
	Validate *configValidateCmd `arg:"subcommand:validate" help:"validate the config file"`
	Print    *configPrintCmd    `arg:"subcommand:print" help:"print the effective config as YAML"`
	Init     *configInitCmd     `arg:"subcommand:init" help:"write a default config file"`
}

type versionCmd struct{}

type cliArgs struct {
	Add     *addCmd     `arg:"subcommand:add" help:"open the interactive add-library dialog"`
	Catalog *catalogCmd `arg:"subcommand:catalog" help:"print the remote library catalog"`
	Install *installCmd `arg:"subcommand:install" help:"add libraries without the dialog"`
	Batch   *batchCmd   `arg:"subcommand:batch" help:"add every library listed in a YAML batch file"`
	List    *listCmd    `arg:"subcommand:list" help:"list installed libraries"`
	History *historyCmd `arg:"subcommand:history" help:"show recent installs"`
	Doctor  *doctorCmd  `arg:"subcommand:doctor" help:"diagnose configuration and connectivity"`
	Config  *configCmd  `arg:"subcommand:config" help:"validate, print or initialize the config"`
	Version *versionCmd `arg:"subcommand:version" help:"print version"`

	ConfigPath string `arg:"--config,env:RESFETCH_CONFIG" placeholder:"PATH" help:"config file (default ~/.config/resfetch/config.yml)"`
	LogLevel   string `arg:"--log-level" placeholder:"LEVEL" help:"debug|info|warn|error (overrides config)"`
	JSONLogs   bool   `arg:"--json-logs" help:"JSON log output"`
}

func (cliArgs) Description() string {
	return "resfetch - add resource libraries from a folder, a URL or the library catalog"
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var fe *ferrors.UserFriendlyError
		if errors.As(err, &fe) {
			fmt.Fprintln(os.Stderr, fe.Error())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	downloader.Version = version

	var args cliArgs
	p, err := arg.NewParser(arg.Config{Program: "resfetch"}, &args)
	if err != nil {
		return err
	}
	if err := p.Parse(argv); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			p.WriteHelpForSubcommand(stdout, p.SubcommandNames()...)
			return nil
		}
		p.WriteUsageForSubcommand(stderr, p.SubcommandNames()...)
		return err
	}

	switch {
	case args.Version != nil:
		fmt.Fprintln(stdout, version)
		return nil
	case args.Config != nil:
		return handleConfig(ctx, &args, stdout)
	case args.Doctor != nil:
		return handleDoctor(ctx, &args, stdout)
	case args.Add != nil:
		return handleAdd(ctx, &args, stdout)
	case args.Catalog != nil:
		return handleCatalog(ctx, &args, stdout)
	case args.Install != nil:
		return handleInstall(ctx, &args, stdout)
	case args.Batch != nil:
		return handleBatch(ctx, &args, stdout)
	case args.List != nil:
		return handleList(ctx, &args, stdout)
	case args.History != nil:
		return handleHistory(ctx, &args, stdout)
	}
	p.WriteHelp(stdout)
	return errors.New("no command provided")
}
