package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the geo38 binary configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds gateway authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds gateway server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int `yaml:"max_body_bytes"`
}

func (h HTTPConfig) ReadTimeout() time.Duration     { return seconds(h.ReadTimeoutSec) }
func (h HTTPConfig) WriteTimeout() time.Duration    { return seconds(h.WriteTimeoutSec) }
func (h HTTPConfig) ShutdownTimeout() time.Duration { return seconds(h.ShutdownSec) }

// Addr is the listen address.
func (h HTTPConfig) Addr() string { return fmt.Sprintf(":%d", h.Port) }

// DatabaseConfig holds Tile38 connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // rueidis, goredis (default: rueidis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Readiness returns the readiness timeout as a duration.
func (d DatabaseConfig) Readiness() time.Duration { return seconds(d.ReadinessTimeout) }

// SearchConfig bounds gateway search requests.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"` // applied when a request has no limit; 0 leaves it to the server
	MaxLimit     int `yaml:"max_limit"`
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Load reads config/<env>.yaml (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(Path(env))
}

// LoadFile reads configuration from an explicit path, expands environment
// references, applies defaults and validates.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
	}

	data, err = expandEnvVars(data)
	if err != nil {
		return Config{}, fmt.Errorf("expand config %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	setDefault(&c.HTTP.Port, 8080)
	setDefault(&c.HTTP.ReadTimeoutSec, 10)
	setDefault(&c.HTTP.WriteTimeoutSec, 10)
	setDefault(&c.HTTP.ShutdownSec, 10)
	setDefault(&c.HTTP.MaxBodyBytes, 1<<20)
	setDefault(&c.Database.ReadinessTimeout, 10)
	setDefault(&c.Search.MaxLimit, 10_000)
	if c.Database.Driver == "" {
		c.Database.Driver = "rueidis"
	}
}

func setDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Validate checks the configuration for correctness. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if len(c.Database.Addrs) == 0 {
		errs = append(errs, errors.New("database.addrs is required"))
	}
	for i, a := range c.Database.Addrs {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, fmt.Errorf("database.addrs[%d] is empty", i))
		}
	}
	switch c.Database.Driver {
	case "rueidis", "goredis":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be \"rueidis\" or \"goredis\", got %q", c.Database.Driver))
	}
	if c.Search.DefaultLimit < 0 {
		errs = append(errs, fmt.Errorf("search.default_limit must not be negative, got %d", c.Search.DefaultLimit))
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit))
	}
	for i, k := range c.Auth.APIKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// Path locates config/<env>.yaml. GEO38_CONFIG_DIR wins, then ./config,
// then the config directory of the source tree.
func Path(env string) string {
	filename := env + ".yaml"

	if dir := os.Getenv("GEO38_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, filename)
	}
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR}, ${VAR:-default} and ${VAR:?message}. The
// last form fails when VAR is unset or empty.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string
	out := envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		if name, msg, required := strings.Cut(expr, ":?"); required {
			val := os.Getenv(name)
			if val == "" {
				missing = append(missing, name+": "+msg)
			}
			return []byte(val)
		}
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("required variables not set: %s", strings.Join(missing, "; "))
	}
	return out, nil
}
