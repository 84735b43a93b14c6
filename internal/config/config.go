package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "JOBSYNC"

// Config is the full runtime configuration shared by the CLI and the mock API.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Server  ServerConfig
	Misc    MiscConfig
}

// APIConfig describes the remote job-board backend.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RefreshPath    string
	LoginRedirect  string
	PageLimit      int
}

// SessionConfig controls where the token and user are persisted.
type SessionConfig struct {
	FilePath string
	Watch    bool
}

// ServerConfig is used by the mock API only.
type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
	TokenTTL           time.Duration
	SeedFile           string
	// Faults arms failure injection at startup, e.g. "DELETE /api/v1/admin/jobs/:id=500*1".
	Faults             string
}

type MiscConfig struct {
	LogLevel        string
	GinMode         string
	RefreshInterval time.Duration
}

// LoadConfig reads .env, the optional config.yaml under JOBSYNC_CONFIG_PATH and
// JOBSYNC_* environment variables, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config"))

	v.SetDefault("api.base_url", "http://localhost:8000/api/v1")
	v.SetDefault("api.request_timeout", "15s")
	v.SetDefault("api.refresh_path", "/auth/refresh-token")
	v.SetDefault("api.login_redirect", "/login")
	v.SetDefault("api.page_limit", 6)
	v.SetDefault("session.file_path", defaultSessionPath())
	v.SetDefault("session.watch", true)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.request_timeout", "2s")
	v.SetDefault("server.cors_allowed_origins", "*")
	v.SetDefault("server.token_ttl", "15m")
	v.SetDefault("server.seed_file", "")
	v.SetDefault("server.faults", "")
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.refresh_interval", "0s")

	// JOBSYNC_API_BASE_URL overrides api.base_url, and so on
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("api.base_url"), "/"),
			RequestTimeout: v.GetDuration("api.request_timeout"),
			RefreshPath:    v.GetString("api.refresh_path"),
			LoginRedirect:  v.GetString("api.login_redirect"),
			PageLimit:      v.GetInt("api.page_limit"),
		},
		Session: SessionConfig{
			FilePath: v.GetString("session.file_path"),
			Watch:    v.GetBool("session.watch"),
		},
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
			TokenTTL:           v.GetDuration("server.token_ttl"),
			SeedFile:           v.GetString("server.seed_file"),
			Faults:             v.GetString("server.faults"),
		},
		Misc: MiscConfig{
			LogLevel:        v.GetString("misc.log_level"),
			GinMode:         v.GetString("misc.gin_mode"),
			RefreshInterval: v.GetDuration("misc.refresh_interval"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url must be an absolute http(s) url, got %q", c.API.BaseURL)
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("api request timeout must be positive")
	}
	if !strings.HasPrefix(c.API.RefreshPath, "/") {
		return fmt.Errorf("api refresh path must start with '/', got %q", c.API.RefreshPath)
	}
	if c.API.LoginRedirect == "" {
		return errors.New("api login redirect is required")
	}
	if c.API.PageLimit <= 0 {
		return fmt.Errorf("api page limit must be positive, got %d", c.API.PageLimit)
	}
	if c.Session.FilePath == "" {
		return errors.New("session file path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}
	if c.Server.TokenTTL <= 0 {
		return errors.New("server token ttl must be positive")
	}
	if c.Misc.RefreshInterval < 0 {
		return errors.New("refresh interval cannot be negative")
	}
	if c.Misc.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.Misc.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	switch c.Misc.GinMode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode: %q", c.Misc.GinMode)
	}
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".jobsync", "session.json")
	}
	return filepath.Join(home, ".jobsync", "session.json")
}

func getEnvOrDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvOrViperPort prefers a bare env var (e.g. PORT on PaaS hosts) over the viper key.
func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if raw := os.Getenv(envKey); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", envKey, raw, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}
