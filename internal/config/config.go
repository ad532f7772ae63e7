// Package config resolves dona's settings from defaults, dona.yaml, .env and
// DONA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/dona/internal/logging"
	"github.com/aretw0/dona/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendLoam   = "loam"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DONA_"

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "dona.yaml"

// Config holds the resolved settings.
type Config struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	MySQLDSN    string `mapstructure:"mysql_dsn" yaml:"mysql_dsn"`

	Theme     string `mapstructure:"theme" yaml:"theme"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	MaxTitleSize   int    `mapstructure:"max_title_size" yaml:"max_title_size"`
	HTTPAddr       string `mapstructure:"http_addr" yaml:"http_addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`

	// EncryptionKey is a base64 AES-256 key; when set titles are sealed at rest.
	EncryptionKey          string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	EncryptionFallbackKeys []string `mapstructure:"encryption_fallback_keys" yaml:"encryption_fallback_keys"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backend:      BackendLoam,
		DataDir:      ".dona",
		RedisURL:     "redis://localhost:6379/0",
		RedisPrefix:  "dona:task:",
		Theme:        string(domain.ThemeAuto),
		LogLevel:     "info",
		LogFormat:    logging.FormatText,
		MaxTitleSize: domain.DefaultMaxTitleSize,
		HTTPAddr:     ":8080",
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigPath is the YAML file. Empty means DefaultFile; a missing default is ignored.
	ConfigPath string
	// EnvFile is the dotenv file. Empty means ".env"; a missing file is ignored.
	EnvFile string
	// Environ returns the process environment (os.Environ when nil).
	Environ func() []string
}

// Load resolves the configuration. Each layer overrides the previous one:
// defaults, YAML file, dotenv file, process environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if err := loadYAML(&cfg, opts.ConfigPath); err != nil {
		return cfg, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	if err := decode(&cfg, envSettings(dotenvPairs(dotenv))); err != nil {
		return cfg, fmt.Errorf("invalid setting in %s: %w", envFile, err)
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}
	if err := decode(&cfg, envSettings(environ())); err != nil {
		return cfg, fmt.Errorf("invalid environment setting: %w", err)
	}

	return cfg, cfg.Validate()
}

func loadYAML(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := decode(cfg, raw); err != nil {
		return fmt.Errorf("invalid setting in %s: %w", filepath.Base(path), err)
	}
	return nil
}

func dotenvPairs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

// envSettings turns DONA_REDIS_URL=x into {"redis_url": "x"}.
func envSettings(environ []string) map[string]any {
	settings := map[string]any{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		settings[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = value
	}
	return settings
}

func decode(cfg *Config, input map[string]any) error {
	if len(input) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendLoam, BackendRedis, BackendMySQL:
	default:
		return fmt.Errorf("unknown backend %q (want memory, file, loam, redis or mysql)", c.Backend)
	}
	if c.Backend == BackendMySQL && c.MySQLDSN == "" {
		return errors.New("backend mysql requires mysql_dsn")
	}
	if _, err := domain.ParseTheme(c.Theme); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxTitleSize < 0 {
		return fmt.Errorf("max_title_size must not be negative, got %d", c.MaxTitleSize)
	}
	return nil
}

// Path resolves a directory inside DataDir for the given backend.
func (c Config) Path(backend string) string {
	if backend == BackendFile {
		return filepath.Join(c.DataDir, "tasks")
	}
	return filepath.Join(c.DataDir, backend)
}
