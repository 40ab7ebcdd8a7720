// Package placer installs a resource library under the library root and
// registers it in the state database.
package placer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jxwalker/resfetch/internal/config"
	"github.com/jxwalker/resfetch/internal/logging"
	"github.com/jxwalker/resfetch/internal/state"
	"github.com/jxwalker/resfetch/internal/util"
)

// Placement modes.
const (
	ModeExtract = "extract"
	ModeCopy    = "copy"
)

// Kinds recorded for installed libraries.
const (
	KindDir     = "dir"
	KindZip     = "zip"
	KindFile    = "file"
	KindArchive = "archive"
)

// ErrBadPath marks a library name or archive entry that would escape the
// library root, or a source that is neither a file nor a directory.
var ErrBadPath = errors.New("bad library path")

// Registry records installed libraries.
type Registry interface {
	UpsertLibrary(l state.Library) error
}

// Installer places libraries under Root.
type Installer struct {
	Root     string
	Mode     string
	Registry Registry
	Log      *logging.Logger
}

func New(cfg *config.Config, reg Registry, log *logging.Logger) *Installer {
	return &Installer{Root: cfg.General.LibraryRoot, Mode: cfg.Placement.Mode, Registry: reg, Log: log}
}

// Install makes src available as library name and returns where it lives.
// A directory is registered in place; a file is extracted or copied under
// Root. origin is what gets recorded as the library source.
func (in *Installer) Install(name, src, origin string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if origin == "" {
		origin = src
	}
	fi, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", src, err)
	}

	var dest, kind string
	switch {
	case fi.IsDir():
		dest, kind = src, KindDir
	case fi.Mode().IsRegular():
		dest, kind, err = in.placeFile(name, src, origin)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("%w: %s is not a regular file or directory", ErrBadPath, src)
	}

	if in.Registry != nil {
		if err := in.Registry.UpsertLibrary(state.Library{Name: name, Source: origin, Path: dest, Kind: kind}); err != nil {
			return "", fmt.Errorf("register %s: %w", name, err)
		}
	}
	in.Log.Infof("installed %s (%s) at %s", name, kind, dest)
	return dest, nil
}

func (in *Installer) placeFile(name, src, origin string) (string, string, error) {
	if in.Root == "" {
		return "", "", errors.New("general.library_root required")
	}
	if err := os.MkdirAll(in.Root, 0o755); err != nil {
		return "", "", err
	}
	mode := strings.ToLower(in.Mode)
	if mode == "" {
		mode = ModeExtract
	}
	switch mode {
	case ModeCopy:
		dest := filepath.Join(in.Root, name+".zip")
		tmp := dest + ".part"
		if err := copyFile(src, tmp); err != nil {
			_ = os.Remove(tmp)
			return "", "", err
		}
		if err := os.Rename(tmp, dest); err != nil {
			_ = os.Remove(tmp)
			return "", "", err
		}
		return dest, KindArchive, nil
	case ModeExtract:
		staging, err := os.MkdirTemp(in.Root, "."+util.SafeFileName(name)+".tmp-")
		if err != nil {
			return "", "", err
		}
		defer func() { _ = os.RemoveAll(staging) }()

		kind := KindZip
		if err := extractZip(src, staging); err != nil {
			if !errors.Is(err, zip.ErrFormat) {
				return "", "", err
			}
			kind = KindFile
			if err := copyFile(src, filepath.Join(staging, util.SafeFileName(util.URLPathBase(origin)))); err != nil {
				return "", "", err
			}
		}
		dest := filepath.Join(in.Root, name)
		if err := os.RemoveAll(dest); err != nil {
			return "", "", fmt.Errorf("replace %s: %w", dest, err)
		}
		if err := os.Rename(staging, dest); err != nil {
			return "", "", err
		}
		return dest, kind, nil
	}
	return "", "", fmt.Errorf("unknown placement mode: %s", in.Mode)
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: invalid library name %q", ErrBadPath, name)
	}
	return nil
}

func extractZip(src, dir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()
	for _, f := range zr.File {
		target, err := entryPath(dir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			// symlinks and devices are not library content
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

// entryPath resolves an archive entry inside dir, rejecting anything that escapes it.
func entryPath(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return "", fmt.Errorf("%w: archive entry %q", ErrBadPath, name)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: archive entry %q", ErrBadPath, name)
	}
	return target, nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(df, sf); err != nil {
		_ = df.Close()
		return err
	}
	return df.Close()
}
