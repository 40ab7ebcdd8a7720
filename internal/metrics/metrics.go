package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jxwalker/resfetch/internal/config"
)

// Manager accumulates counters and renders them in Prometheus textfile format.
// A nil *Manager is valid and records nothing.
type Manager struct {
	path string
	mu   sync.Mutex
	// counters
	bytesTotal      int64
	installsSuccess int64
	installsFailed  int64
	catalogFetches  int64
	lastInstallSec  float64
}

// New returns nil when the textfile is disabled. It fails when the textfile's
// directory cannot be created.
func New(cfg *config.Config) (*Manager, error) {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil, nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("metrics textfile dir: %w", err)
	}
	return &Manager{path: p}, nil
}

func (m *Manager) AddBytes(n int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.bytesTotal += n
	m.mu.Unlock()
}

func (m *Manager) IncInstallsSuccess() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.installsSuccess++
	m.mu.Unlock()
}

func (m *Manager) IncInstallsFailed() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.installsFailed++
	m.mu.Unlock()
}

func (m *Manager) IncCatalogFetches() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.catalogFetches++
	m.mu.Unlock()
}

func (m *Manager) ObserveInstallSeconds(sec float64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.lastInstallSec = sec
	m.mu.Unlock()
}

// Write atomically replaces the textfile.
func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	counter := func(name, help string, v int64) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s counter\n", name)
		fmt.Fprintf(f, "%s %d\n", name, v)
	}
	counter("resfetch_bytes_downloaded_total", "Total bytes downloaded.", m.bytesTotal)
	counter("resfetch_installs_success_total", "Total resource libraries installed.", m.installsSuccess)
	counter("resfetch_installs_failed_total", "Total resource library installs that failed.", m.installsFailed)
	counter("resfetch_catalog_fetches_total", "Total catalog list requests.", m.catalogFetches)

	fmt.Fprintf(f, "# HELP resfetch_last_install_seconds Duration of the last completed install in seconds.\n")
	fmt.Fprintf(f, "# TYPE resfetch_last_install_seconds gauge\n")
	fmt.Fprintf(f, "resfetch_last_install_seconds %.6f\n", m.lastInstallSec)

	fmt.Fprintf(f, "# HELP resfetch_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE resfetch_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "resfetch_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}
