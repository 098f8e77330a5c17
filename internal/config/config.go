package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by output.default_format and --output.
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Defaults applied by Default().
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeout   = 10 * time.Second
	DefaultBurst     = 1
	DefaultUserAgent = "pokedex-cli"
	configFileName   = "config.yaml"
)

// Config is the full pokedex configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	configPath string
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token is passed through opaquely as the anti-forgery header on search requests.
	Token string `yaml:"token,omitempty"`
	// TokenFromPage reads the token from the backend home page when Token is empty.
	TokenFromPage bool          `yaml:"token_from_page"`
	Timeout       time.Duration `yaml:"timeout"`
	// RateLimit is the maximum requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
	UserAgent string  `yaml:"user_agent"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// LoggingConfig configures the logger. An empty File logs to stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration without consulting disk or environment.
func Default() *Config {
	cfg := &Config{
		API: APIConfig{
			BaseURL:       DefaultBaseURL,
			TokenFromPage: true,
			Timeout:       DefaultTimeout,
			Burst:         DefaultBurst,
			UserAgent:     DefaultUserAgent,
		},
		Output: OutputConfig{
			DefaultFormat: OutputFormatText,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
	if dir, err := GetConfigDir(); err == nil {
		cfg.configPath = filepath.Join(dir, configFileName)
	}
	return cfg
}

// New returns the effective configuration: defaults, then the config file
// (if present), then POKEDEX_* environment overrides. A broken config file
// is reported on stderr and ignored so the CLI stays usable.
func New() *Config {
	cfg := Default()
	if err := cfg.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: ignoring config file: %v\n", err)
	}
	cfg.ApplyEnv()
	return cfg
}

// ConfigPath returns the file this config loads from and saves to.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath changes the file used by Load and Save.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Load reads the config file over the current values.
func (c *Config) Load() error {
	if c.configPath == "" {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", c.configPath, err)
	}
	return nil
}

// Save writes the config file, creating its directory if needed.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no configuration path set")
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", c.configPath, err)
	}
	return nil
}

// ApplyEnv applies POKEDEX_* environment overrides. Unparseable numeric
// values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("POKEDEX_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("POKEDEX_CSRF_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("POKEDEX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}
	if v := os.Getenv("POKEDEX_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.API.RateLimit = f
		}
	}
	if v := os.Getenv("POKEDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("POKEDEX_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("POKEDEX_OUTPUT"); v != "" {
		c.Output.DefaultFormat = v
	}
}

// Validate checks the configuration for values the client cannot work with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case c.API.BaseURL == "":
		errs = append(errs, errors.New("api.base_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("api.base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("api.base_url must use http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("api.base_url must include a host"))
	}

	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("api.rate_limit must be >= 0, got %g", c.API.RateLimit))
	}
	if c.API.Burst < 1 {
		errs = append(errs, fmt.Errorf("api.burst must be >= 1, got %d", c.API.Burst))
	}

	switch c.Output.DefaultFormat {
	case OutputFormatText, OutputFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output.default_format must be %q or %q, got %q",
			OutputFormatText, OutputFormatJSON, c.Output.DefaultFormat))
	}

	if _, lvlErr := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); lvlErr != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", lvlErr))
	}

	return errors.Join(errs...)
}

// configField binds a dotted key to accessors on Config.
type configField struct {
	get func(*Config) string
	set func(*Config, string) error
}

//nolint:gochecknoglobals // Static key table.
var configFields = map[string]configField{
	"api.base_url": {
		get: func(c *Config) string { return c.API.BaseURL },
		set: func(c *Config, v string) error { c.API.BaseURL = v; return nil },
	},
	"api.token": {
		get: func(c *Config) string { return c.API.Token },
		set: func(c *Config, v string) error { c.API.Token = v; return nil },
	},
	"api.token_from_page": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.TokenFromPage) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			c.API.TokenFromPage = b
			return nil
		},
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration %q", v)
			}
			c.API.Timeout = d
			return nil
		},
	},
	"api.rate_limit": {
		get: func(c *Config) string { return strconv.FormatFloat(c.API.RateLimit, 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q", v)
			}
			c.API.RateLimit = f
			return nil
		},
	},
	"api.burst": {
		get: func(c *Config) string { return strconv.Itoa(c.API.Burst) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer %q", v)
			}
			c.API.Burst = n
			return nil
		},
	},
	"api.user_agent": {
		get: func(c *Config) string { return c.API.UserAgent },
		set: func(c *Config, v string) error { c.API.UserAgent = v; return nil },
	},
	"output.default_format": {
		get: func(c *Config) string { return c.Output.DefaultFormat },
		set: func(c *Config, v string) error { c.Output.DefaultFormat = v; return nil },
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.format": {
		get: func(c *Config) string { return c.Logging.Format },
		set: func(c *Config, v string) error { c.Logging.Format = v; return nil },
	},
	"logging.file": {
		get: func(c *Config) string { return c.Logging.File },
		set: func(c *Config, v string) error { c.Logging.File = v; return nil },
	},
}

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown configuration key")

// Get returns the string form of a dotted key such as "api.base_url".
func (c *Config) Get(key string) (string, error) {
	f, ok := configFields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set assigns a dotted key from its string form.
func (c *Config) Set(key, value string) error {
	f, ok := configFields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.set(c, value)
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
