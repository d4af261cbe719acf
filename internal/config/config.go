package config

import (
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ScanPaths     []string      `toml:"scan_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Analysis      Analysis      `toml:"analysis"`
	Scan          Scan          `toml:"scan"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Analysis struct {
	// DataLibs are the library aliases that mark a qualified call as a
	// data-access operation (e.g. pd.read_csv).
	DataLibs []string `toml:"data_libs"`
}

type Scan struct {
	Workers int `toml:"workers"`
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	EventsPerSec float64       `toml:"events_per_sec"`
	EventBurst   int           `toml:"event_burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Addr         string `toml:"addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Defaults returns the configuration used when no config file is given.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.ScanPaths) == 0 {
		c.ScanPaths = []string{"."}
	}
	if len(c.Exclude.Dirs) == 0 {
		c.Exclude.Dirs = []string{".git", "__pycache__", ".venv", "venv", "node_modules"}
	}
	if len(c.Analysis.DataLibs) == 0 {
		c.Analysis.DataLibs = []string{"pandas", "pd", "numpy", "np", "spark", "pyspark"}
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = runtime.NumCPU()
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Watch.EventsPerSec <= 0 {
		c.Watch.EventsPerSec = 20
	}
	if c.Watch.EventBurst <= 0 {
		c.Watch.EventBurst = 40
	}
	if c.History.Path == "" {
		c.History.Path = ".pyfacts/history.db"
	}
	if c.Observability.Addr == "" {
		c.Observability.Addr = ":9090"
	}
}
