package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCatalogListURL serves the artist|name|path|size catalog document.
	DefaultCatalogListURL = "http://library.rptools.net/1.3/listArtPacks"
	// DefaultCatalogBaseURL is prefixed to every catalog row path at install time.
	DefaultCatalogBaseURL = "http://library.rptools.net/1.3"
	// DefaultTimeoutSeconds applies when network.timeout_seconds is absent.
	DefaultTimeoutSeconds = 60

	EnvConfig         = "RESFETCH_CONFIG"
	EnvCatalogListURL = "RESFETCH_CATALOG_URL"
	EnvCatalogBaseURL = "RESFETCH_CATALOG_BASE_URL"
)

// Config mirrors the YAML schema. Validation happens in Validate().
type Config struct {
	Version   int       `yaml:"version"`
	General   General   `yaml:"general"`
	Network   Network   `yaml:"network"`
	Catalog   Catalog   `yaml:"catalog"`
	Placement Placement `yaml:"placement"`
	Logging   Logging   `yaml:"logging"`
	Metrics   Metrics   `yaml:"metrics"`
	UI        UIOptions `yaml:"ui"`
}

type General struct {
	DataRoot    string `yaml:"data_root"`
	LibraryRoot string `yaml:"library_root"`
	// TempRoot holds downloads while they are being installed. Empty means os.TempDir().
	TempRoot string `yaml:"temp_root"`
}

type Network struct {
	// TimeoutSeconds bounds connect and response headers; 0 disables it.
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type Catalog struct {
	ListURL string `yaml:"list_url"`
	BaseURL string `yaml:"base_url"`
}

type Placement struct {
	Mode string `yaml:"mode"` // extract | copy
}

type Logging struct {
	Level  string  `yaml:"level"`  // debug|info|warn|error
	Format string  `yaml:"format"` // human|json
	File   LogFile `yaml:"file"`
}

type LogFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type UIOptions struct {
	// Compact hides the artist column in the catalog table.
	Compact bool `yaml:"compact"`
}

// DefaultPath returns ~/.config/resfetch/config.yml.
func DefaultPath() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(h, ".config", "resfetch", "config.yml"), nil
}

// Default returns a config rooted under home that passes Validate.
func Default(home string) *Config {
	return &Config{
		Version: 1,
		General: General{
			DataRoot:    filepath.Join(home, ".local", "share", "resfetch"),
			LibraryRoot: filepath.Join(home, ".local", "share", "resfetch", "libraries"),
		},
		Network:   Network{TimeoutSeconds: DefaultTimeoutSeconds},
		Catalog:   Catalog{ListURL: DefaultCatalogListURL, BaseURL: DefaultCatalogBaseURL},
		Placement: Placement{Mode: "extract"},
		Logging:   Logging{Level: "info", Format: "human"},
	}
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML bytes with ${ENV} expansion, then applies defaults,
// environment overrides and validation.
func Parse(b []byte) (*Config, error) {
	b = []byte(os.ExpandEnv(string(b)))
	// keys absent from the file keep these values; an explicit 0 survives
	c := Config{Network: Network{TimeoutSeconds: DefaultTimeoutSeconds}}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.General.LibraryRoot, err = expandTilde(c.General.LibraryRoot); err != nil {
		return err
	}
	if c.General.TempRoot, err = expandTilde(c.General.TempRoot); err != nil {
		return err
	}
	if c.Logging.File.Path, err = expandTilde(c.Logging.File.Path); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.General.LibraryRoot == "" && c.General.DataRoot != "" {
		c.General.LibraryRoot = filepath.Join(c.General.DataRoot, "libraries")
	}
	if c.Catalog.ListURL == "" {
		c.Catalog.ListURL = DefaultCatalogListURL
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = DefaultCatalogBaseURL
	}
	if c.Placement.Mode == "" {
		c.Placement.Mode = "extract"
	}
}

// ApplyEnv overrides the catalog endpoints from RESFETCH_CATALOG_URL and
// RESFETCH_CATALOG_BASE_URL when set.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvCatalogListURL)); v != "" {
		c.Catalog.ListURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogBaseURL)); v != "" {
		c.Catalog.BaseURL = v
	}
}

// TempDir returns the directory used for in-flight downloads.
func (c *Config) TempDir() string {
	if c.General.TempRoot != "" {
		return c.General.TempRoot
	}
	return os.TempDir()
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.General.DataRoot == "" {
		return errors.New("general.data_root is required")
	}
	if c.Network.TimeoutSeconds < 0 {
		return errors.New("network.timeout_seconds must be >= 0")
	}
	switch strings.ToLower(c.Placement.Mode) {
	case "extract", "copy":
	default:
		return fmt.Errorf("placement.mode invalid: %s", c.Placement.Mode)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	return nil
}

// Marshal renders the config as YAML for `config init` and `config print`.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path (and parents) when it is non-empty.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}
