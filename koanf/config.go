// Package koanf loads repodocs configuration from a YAML file and the
// environment.
package koanf

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// MaxFileSize is the largest configuration file Load accepts.
const MaxFileSize = 1024 * 1024

// EnvPrefix marks environment variables that override file values.
// REPODOCS_SETTINGS_CONCURRENCY maps to settings.concurrency.
const EnvPrefix = "REPODOCS_"

// Config is the complete runtime configuration.
type Config struct {
	Repositories []repodocs.RepositoryConfig `koanf:"repositories"`
	Paths        Paths                       `koanf:"paths"`
	Settings     Settings                    `koanf:"settings"`
	Server       Server                      `koanf:"server"`
}

// Paths locates on-disk state.
type Paths struct {
	RawDir     string `koanf:"raw_dir"`
	SQLitePath string `koanf:"sqlite_path"`
}

// Settings tunes the sync pipeline.
type Settings struct {
	AllowedExtensions []string      `koanf:"allowed_extensions"`
	MaxFileSize       int64         `koanf:"max_file_size"`
	Timeout           time.Duration `koanf:"timeout"`
	Depth             int           `koanf:"depth"`
	Concurrency       int           `koanf:"concurrency"`
	Retries           int           `koanf:"retries"`
	CloneRate         float64       `koanf:"clone_rate"` // clones per second per host, 0 is unlimited
	CommitVersions    bool          `koanf:"commit_versions"`
	Prune             bool          `koanf:"prune"`
	Cleanup           bool          `koanf:"cleanup"`
}

// Server configures the read-only HTTP API.
type Server struct {
	Addr string `koanf:"addr"`
}

var defaults = map[string]any{
	"paths.raw_dir":               "data/raw",
	"paths.sqlite_path":           "data/sqlite/docs.db",
	"settings.allowed_extensions": []string{".md"},
	"settings.max_file_size":      int64(1 << 20),
	"settings.timeout":            "5m",
	"settings.depth":              0,
	"settings.concurrency":        1,
	"settings.retries":            3,
	"settings.clone_rate":         0.0,
	"settings.commit_versions":    false,
	"settings.prune":              true,
	"settings.cleanup":            false,
	"server.addr":                 ":8080",
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. ${VAR} references in the file are expanded from the
// environment before parsing. All failures are ECONFIG.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, repodocs.WrapError(repodocs.ECONFIG, err, "failed to read config file")
	}
	if info.Size() > MaxFileSize {
		return nil, repodocs.Errorf(repodocs.ECONFIG, "config file %s exceeds %d bytes", path, MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, repodocs.WrapError(repodocs.ECONFIG, err, "failed to read config file")
	}
	return Parse(content)
}

// Parse is Load without the file access.
func Parse(content []byte) (*Config, error) {
	if len(content) > MaxFileSize {
		return nil, repodocs.Errorf(repodocs.ECONFIG, "config exceeds %d bytes", MaxFileSize)
	}

	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, repodocs.WrapError(repodocs.EINTERNAL, err, "failed to set default %s", key)
		}
	}

	expanded := os.Expand(string(content), os.Getenv)
	if err := k.Load(rawbytes.Provider([]byte(expanded)), yaml.Parser()); err != nil {
		return nil, repodocs.WrapError(repodocs.ECONFIG, err, "failed to parse config")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, repodocs.WrapError(repodocs.ECONFIG, err, "failed to load environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, repodocs.WrapError(repodocs.ECONFIG, err, "failed to decode config")
	}

	for i := range cfg.Repositories {
		if cfg.Repositories[i].Name == "" {
			cfg.Repositories[i].Name = NameFromURL(cfg.Repositories[i].URL)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps REPODOCS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// NameFromURL derives a repository name from the last path segment of url,
// without a ".git" suffix.
func NameFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return strings.TrimSuffix(path.Base(url), ".git")
}

// Validate returns an ECONFIG error for the first invalid value.
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "at least one repository required")
	}
	if err := repodocs.ValidateRepositories(c.Repositories); err != nil {
		return err
	}
	if c.Paths.RawDir == "" {
		return repodocs.Errorf(repodocs.ECONFIG, "paths.raw_dir required")
	}
	if c.Paths.SQLitePath == "" {
		return repodocs.Errorf(repodocs.ECONFIG, "paths.sqlite_path required")
	}

	s := c.Settings
	if len(s.AllowedExtensions) == 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.allowed_extensions must not be empty")
	}
	for _, ext := range s.AllowedExtensions {
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext[1:], `./\`) {
			return repodocs.Errorf(repodocs.ECONFIG, "invalid extension %q: must start with a dot", ext)
		}
	}
	if s.MaxFileSize <= 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "invalid file size limit %d", s.MaxFileSize)
	}
	if s.Timeout < 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.timeout must not be negative")
	}
	if s.Depth < 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.depth must not be negative")
	}
	if s.Concurrency < 1 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.concurrency must be at least 1")
	}
	if s.Retries < 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.retries must not be negative")
	}
	if s.CloneRate < 0 {
		return repodocs.Errorf(repodocs.ECONFIG, "settings.clone_rate must not be negative")
	}
	return nil
}

// RetryDelays returns exponential backoff delays starting at one second,
// one per configured retry.
func (s Settings) RetryDelays() []time.Duration {
	delays := make([]time.Duration, s.Retries)
	for i := range delays {
		delays[i] = time.Second << i
	}
	return delays
}
