package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"pyimports/internal/core/errors"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "pyimports.toml"

type Config struct {
	Version       int           `toml:"version"`
	Imports       Imports       `toml:"imports"`
	Scan          Scan          `toml:"scan"`
	Exclude       Exclude       `toml:"exclude"`
	Cache         Cache         `toml:"cache"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`

	// Source is the file the config was read from, empty for built-in defaults.
	Source string `toml:"-"`
}

type Imports struct {
	StringImports bool `toml:"string_imports"`
	MinDots       int  `toml:"min_dots"`
}

type Scan struct {
	Paths        []string      `toml:"paths"`
	IncludeTests bool          `toml:"include_tests"`
	Workers      int           `toml:"workers"`
	FileTimeout  time.Duration `toml:"file_timeout"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Entries int    `toml:"entries"`
	Path    string `toml:"path"` // sqlite file; empty keeps the cache in memory
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // re-analyses per second
	Burst    int           `toml:"burst"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

type Observability struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
	ServiceName  string `toml:"service_name"`
}

const (
	defaultMinDots      = 2
	defaultCacheEntries = 4096
	defaultDebounce     = 500 * time.Millisecond
	defaultWatchRate    = 20
	defaultWatchBurst   = 10
	defaultFileTimeout  = 10 * time.Second
	defaultMetricsAddr  = "127.0.0.1:9464"
	defaultServiceName  = "pyimports"
)

var defaultExcludeDirs = []string{".git", ".hg", ".svn", ".tox", ".venv", "venv", "__pycache__", "node_modules", "build", "dist"}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Imports: Imports{MinDots: defaultMinDots},
		Cache:   Cache{Enabled: true},
	}
	applyDefaults(cfg)
	normalize(cfg)
	return cfg
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read config"), errors.CtxPath, path)
	}

	cfg := &Config{}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}
	// Zero is a meaningful min_dots and false a meaningful cache switch, so
	// defaults only apply to keys the file leaves out.
	if !meta.IsDefined("imports", "min_dots") {
		cfg.Imports.MinDots = defaultMinDots
	}
	if !meta.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = true
	}
	cfg.Source = path

	applyDefaults(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// LoadOrDefault loads path when given. Without a path it tries DefaultFile in
// dir and falls back to Default when that file does not exist.
func LoadOrDefault(path, dir string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	candidate := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(candidate); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "stat config"), errors.CtxPath, candidate)
	}
	return Load(candidate)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = []string{"."}
	}
	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Scan.FileTimeout == 0 {
		cfg.Scan.FileTimeout = defaultFileTimeout
	}

	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}

	if cfg.Cache.Entries == 0 {
		cfg.Cache.Entries = defaultCacheEntries
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	if cfg.Watch.Rate == 0 {
		cfg.Watch.Rate = defaultWatchRate
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = defaultWatchBurst
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "json"
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = defaultMetricsAddr
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = defaultServiceName
	}
}

func normalize(cfg *Config) {
	cfg.Scan.Paths = normalizeList(cfg.Scan.Paths)
	cfg.Exclude.Dirs = normalizeList(cfg.Exclude.Dirs)
	cfg.Exclude.Files = normalizeList(cfg.Exclude.Files)
	cfg.Cache.Path = strings.TrimSpace(cfg.Cache.Path)
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Observability.Address = strings.TrimSpace(cfg.Observability.Address)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Observability.ServiceName = strings.TrimSpace(cfg.Observability.ServiceName)
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ResolveRelative anchors a relative path at base.
func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// CachePath returns the sqlite cache location resolved against the config
// file's directory, or "" for an in-memory cache.
func (c *Config) CachePath() string {
	if c.Cache.Path == "" {
		return ""
	}
	base := "."
	if c.Source != "" {
		base = filepath.Dir(c.Source)
	}
	return ResolveRelative(base, c.Cache.Path)
}
