// Package config loads the adapter configuration from files, the environment
// and dotenv files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-version"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem used by LoadConfig.
var AppFs = afero.NewOsFs()

const (
	// FileName is the config file name without extension.
	FileName = ".prisma-soql"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PRISMA_SOQL"
)

// Transport kinds.
const (
	TransportREST    = "rest"
	TransportSandbox = "sandbox"
)

var minAPIVersion = version.Must(version.NewVersion("20.0"))

// Config holds the application configuration.
type Config struct {
	Transport  string
	SchemaPath string
	Debug      bool
	LogFormat  string

	REST      RESTConfig
	Sandbox   SandboxConfig
	Telemetry TelemetryConfig
}

// RESTConfig holds the remote service connection.
type RESTConfig struct {
	LoginURL      string
	APIVersion    string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
	Timeout       time.Duration
	BatchSize     int
}

// SandboxConfig holds the local database behind the sandbox transport.
type SandboxConfig struct {
	Provider       string
	URL            string
	ConnectTimeout int
}

// TelemetryConfig controls metrics collection.
type TelemetryConfig struct {
	Enabled   bool
	Namespace string
}

// Loader reads configuration through a viper instance over a filesystem.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a loader over fs.
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Loader{v: v, fs: fs}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportREST)
	v.SetDefault("schema_path", "schema.yaml")
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("rest.login_url", "https://login.salesforce.com")
	v.SetDefault("rest.api_version", "58.0")
	v.SetDefault("rest.client_id", "")
	v.SetDefault("rest.client_secret", "")
	v.SetDefault("rest.username", "")
	v.SetDefault("rest.password", "")
	v.SetDefault("rest.security_token", "")
	v.SetDefault("rest.timeout", "30s")
	v.SetDefault("rest.batch_size", 200)
	v.SetDefault("sandbox.provider", "sqlite")
	v.SetDefault("sandbox.url", "file:sandbox.db")
	v.SetDefault("sandbox.connect_timeout", 10)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.namespace", "prisma_soql")
}

// Load reads configFile, or searches the working directory, the home
// directory and ~/.config/prisma-soql when configFile is empty. A missing
// config file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(FileName)
		l.v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			l.v.AddConfigPath(home)
			l.v.AddConfigPath(filepath.Join(home, ".config", "prisma-soql"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return l.decode()
}

// loadDotEnv applies .env and then .env.local. Variables already set in the
// process environment win over .env, while .env.local overrides both.
func (l *Loader) loadDotEnv() error {
	for _, f := range []struct {
		name     string
		override bool
	}{{".env", false}, {".env.local", true}} {
		data, err := afero.ReadFile(l.fs, f.name)
		if err != nil {
			continue
		}
		vars, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
		for k, val := range vars {
			if _, set := os.LookupEnv(k); set && !f.override {
				continue
			}
			if err := os.Setenv(k, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) decode() (*Config, error) {
	v := l.v

	timeout, err := time.ParseDuration(v.GetString("rest.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid rest.timeout: %w", err)
	}

	schemaPath, err := homedir.Expand(v.GetString("schema_path"))
	if err != nil {
		return nil, fmt.Errorf("invalid schema_path: %w", err)
	}

	cfg := &Config{
		Transport:  strings.ToLower(v.GetString("transport")),
		SchemaPath: schemaPath,
		Debug:      v.GetBool("debug"),
		LogFormat:  v.GetString("log_format"),
		REST: RESTConfig{
			LoginURL:      v.GetString("rest.login_url"),
			APIVersion:    v.GetString("rest.api_version"),
			ClientID:      v.GetString("rest.client_id"),
			ClientSecret:  v.GetString("rest.client_secret"),
			Username:      v.GetString("rest.username"),
			Password:      v.GetString("rest.password"),
			SecurityToken: v.GetString("rest.security_token"),
			Timeout:       timeout,
			BatchSize:     v.GetInt("rest.batch_size"),
		},
		Sandbox: SandboxConfig{
			Provider:       v.GetString("sandbox.provider"),
			URL:            v.GetString("sandbox.url"),
			ConnectTimeout: v.GetInt("sandbox.connect_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:   v.GetBool("telemetry.enabled"),
			Namespace: v.GetString("telemetry.namespace"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be caught by type conversion.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportREST:
		v, err := version.NewVersion(c.REST.APIVersion)
		if err != nil {
			return fmt.Errorf("invalid rest.api_version %q: %w", c.REST.APIVersion, err)
		}
		if v.LessThan(minAPIVersion) {
			return fmt.Errorf("rest.api_version %s is older than %s", v, minAPIVersion)
		}
		if c.REST.BatchSize <= 0 || c.REST.BatchSize > 200 {
			return fmt.Errorf("rest.batch_size must be between 1 and 200, got %d", c.REST.BatchSize)
		}
	case TransportSandbox:
		switch strings.ToLower(c.Sandbox.Provider) {
		case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
		default:
			return fmt.Errorf("unsupported sandbox.provider %q", c.Sandbox.Provider)
		}
		if c.Sandbox.URL == "" {
			return errors.New("sandbox.url is required")
		}
	default:
		return fmt.Errorf("unknown transport %q (expected %s or %s)", c.Transport, TransportREST, TransportSandbox)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Set overrides a key, e.g. from a command line flag.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Reload decodes the current values again.
func (l *Loader) Reload() (*Config, error) {
	return l.decode()
}

// Watch calls onChange whenever the loaded config file changes.
func (l *Loader) Watch(onChange func(*Config, error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

// Save writes cfg to path with credentials blanked.
func (l *Loader) Save(cfg *Config, path string) error {
	for _, key := range []string{"rest.client_secret", "rest.password", "rest.security_token"} {
		l.v.Set(key, "")
	}
	l.v.Set("transport", cfg.Transport)
	l.v.Set("schema_path", cfg.SchemaPath)
	l.v.Set("rest.login_url", cfg.REST.LoginURL)
	l.v.Set("rest.api_version", cfg.REST.APIVersion)
	l.v.Set("rest.username", cfg.REST.Username)
	l.v.Set("sandbox.provider", cfg.Sandbox.Provider)
	l.v.Set("sandbox.url", cfg.Sandbox.URL)

	if err := l.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return l.v.WriteConfigAs(path)
}

// LoadConfig loads configuration from the default locations.
func LoadConfig() (*Config, error) {
	return NewLoader(AppFs).Load("")
}

// DefaultPath returns ~/.config/prisma-soql/.prisma-soql.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "prisma-soql", FileName+".yaml"), nil
}
