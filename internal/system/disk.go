package system

import (
	"fmt"
	"syscall"
)

// LowSpaceBytes is the free-space level doctor warns about.
const LowSpaceBytes = 1 << 30

// CheckAvailableSpace returns the available disk space in bytes for the given path
func CheckAvailableSpace(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// HasSufficientSpace reports whether path can take requiredBytes plus a 10%
// margin for extraction overhead.
func HasSufficientSpace(path string, requiredBytes uint64) (bool, uint64, error) {
	available, err := CheckAvailableSpace(path)
	if err != nil {
		return false, 0, err
	}
	required := uint64(float64(requiredBytes) * 1.1)
	return available >= required, available, nil
}
