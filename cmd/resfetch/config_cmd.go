package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jxwalker/resfetch/internal/config"
)

func handleConfig(ctx context.Context, args *cliArgs, stdout io.Writer) error {
	cc := args.Config
	switch {
	case cc.Validate != nil:
		path := resolveConfigPath(args)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file not found: %s", path)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := cfg.ValidateWithFriendlyErrors(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: ok\n", path)
		return nil
	case cc.Print != nil:
		cfg, _, err := loadConfig(args)
		if err != nil {
			return err
		}
		b, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(b)
		return err
	case cc.Init != nil:
		path := resolveConfigPath(args)
		if path == "" {
			return errors.New("cannot determine config path; pass --config")
		}
		if _, err := os.Stat(path); err == nil && !cc.Init.Force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		b, err := config.Default(home).Marshal()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", path)
		return nil
	}
	return errors.New("config: choose validate, print or init")
}
