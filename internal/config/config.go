package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. ESTATELENS_BACKEND_URL.
const EnvPrefix = "ESTATELENS"

// Global configuration structure.
type Global struct {
	BackendURL     string `mapstructure:"backend_url" yaml:"backend_url"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Outputs
	ExportPath  string `mapstructure:"export_path" yaml:"export_path"`
	ChartsDir   string `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`
}

// Dir returns ~/.estatelens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".estatelens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.estatelens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env (.env included) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(cfgFile, true)
}

// LoadFile loads only the persisted configuration (file over defaults), so a
// rewrite of the file never picks up transient env or flag overrides.
func LoadFile(cfgFile string) (*Global, error) {
	return load(cfgFile, false)
}

func load(cfgFile string, withEnv bool) (*Global, error) {
	v := viper.New()
	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	v.SetDefault("backend_url", "http://127.0.0.1:8000")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("export_path", "real_estate_data.csv")
	v.SetDefault("charts_dir", "charts")
	v.SetDefault("chart_width", 800)
	v.SetDefault("chart_height", 320)
	v.SetDefault("chart_format", "png")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate reports every invalid setting at once.
func (c *Global) Validate() error {
	var err error
	if u, perr := url.Parse(c.BackendURL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("backend_url must be an http(s) URL, got %q", c.BackendURL))
	}
	if c.HTTPTimeoutSec <= 0 {
		err = multierr.Append(err, fmt.Errorf("http_timeout_sec must be positive, got %d", c.HTTPTimeoutSec))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	switch strings.ToLower(c.ChartFormat) {
	case "png", "svg":
	default:
		err = multierr.Append(err, fmt.Errorf("chart_format must be png or svg, got %q", c.ChartFormat))
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		err = multierr.Append(err, fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight))
	}
	return err
}
