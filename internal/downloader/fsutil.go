package downloader

import (
	"os"
	"path/filepath"
	"strings"
)

// finalizePart renames a completed .part file to its final name and syncs the
// parent directory so the rename survives a crash.
func finalizePart(part string) (string, error) {
	final := strings.TrimSuffix(part, ".part")
	if err := os.Rename(part, final); err != nil {
		return "", err
	}
	_ = fsyncDir(filepath.Dir(final))
	return final, nil
}

func fsyncDir(dir string) error {
	df, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = df.Close() }()
	return df.Sync()
}
