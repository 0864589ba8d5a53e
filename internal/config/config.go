package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Server    ServerConfig
	Log       LogConfig
	LLM       LLMConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig
	Mood      MoodConfig
	Tasks     TasksConfig
}

type ServerConfig struct {
	Port           int
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LogConfig struct {
	Level string
}

type LLMConfig struct {
	Provider    string // "mock", "openai", "gemini" or "vertex"
	Model       string
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	Timeout     time.Duration
	GCPProject  string `mapstructure:"gcp_project"`
	GCPLocation string `mapstructure:"gcp_location"`
}

type StorageConfig struct {
	Backend         string // "memory", "postgres", "sqlite" or "firestore"
	DSN             string
	GCPProject      string        `mapstructure:"gcp_project"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type PolicyConfig struct {
	Window time.Duration
	Max    int
}

type RateLimitConfig struct {
	Backend          string  // "memory" or "redis"
	RedisAddr        string  `mapstructure:"redis_addr"`
	RedisPassword    string  `mapstructure:"redis_password"`
	RedisDB          int     `mapstructure:"redis_db"`
	RedisPrefix      string  `mapstructure:"redis_prefix"`
	SweepProbability float64 `mapstructure:"sweep_probability"`
	Chat             PolicyConfig
	Tasks            PolicyConfig
	Read             PolicyConfig
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	Audience   string
	AdminURL   string `mapstructure:"admin_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type MoodConfig struct {
	Workers int
	Timeout time.Duration
}

type TasksConfig struct {
	Timezone string
}

// Location resolves the reference timezone used for "today".
func (c TasksConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads config.yaml (optional), a .env file (optional) and FARUM_*
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FARUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("log.level", "info")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.gcp_project", "")
	v.SetDefault("llm.gcp_location", "us-central1")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.gcp_project", "")
	v.SetDefault("storage.max_open_conns", 10)
	v.SetDefault("storage.max_idle_conns", 5)
	v.SetDefault("storage.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("storage.auto_migrate", true)
	v.SetDefault("storage.log_queries", false)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis_addr", "localhost:6379")
	v.SetDefault("ratelimit.redis_password", "")
	v.SetDefault("ratelimit.redis_db", 0)
	v.SetDefault("ratelimit.redis_prefix", "farum:rl:")
	v.SetDefault("ratelimit.sweep_probability", 0.01)
	v.SetDefault("ratelimit.chat.window", time.Minute)
	v.SetDefault("ratelimit.chat.max", 20)
	v.SetDefault("ratelimit.tasks.window", time.Minute)
	v.SetDefault("ratelimit.tasks.max", 10)
	v.SetDefault("ratelimit.read.window", time.Minute)
	v.SetDefault("ratelimit.read.max", 60)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.audience", "authenticated")
	v.SetDefault("auth.admin_url", "")
	v.SetDefault("auth.service_key", "")

	v.SetDefault("mood.workers", 4)
	v.SetDefault("mood.timeout", 15*time.Second)

	v.SetDefault("tasks.timezone", "UTC")
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	switch Mode(strings.ToLower(string(cfg.Mode))) {
	case ModeGCP:
		cfg.Mode = ModeGCP
	default:
		cfg.Mode = ModeLocal
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		if cfg.Mode == ModeLocal {
			cfg.LLM.Provider = "mock"
		} else {
			cfg.LLM.Provider = "vertex"
		}
	}
	if cfg.LLM.GCPProject == "" {
		cfg.LLM.GCPProject = cfg.Storage.GCPProject
	}
	if cfg.Storage.GCPProject == "" {
		cfg.Storage.GCPProject = cfg.LLM.GCPProject
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.LLM.Provider {
	case "mock":
	case "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the openai provider"))
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the gemini provider"))
		}
	case "vertex":
		if c.LLM.GCPProject == "" {
			errs = append(errs, errors.New("llm.gcp_project is required for the vertex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	switch c.Storage.Backend {
	case "memory":
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for the %s backend", c.Storage.Backend))
		}
	case "firestore":
		if c.Storage.GCPProject == "" {
			errs = append(errs, errors.New("storage.gcp_project is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown ratelimit.backend %q", c.RateLimit.Backend))
	}
	for name, p := range map[string]PolicyConfig{
		"chat":  c.RateLimit.Chat,
		"tasks": c.RateLimit.Tasks,
		"read":  c.RateLimit.Read,
	} {
		if p.Window <= 0 || p.Max <= 0 {
			errs = append(errs, fmt.Errorf("ratelimit.%s needs a positive window and max", name))
		}
	}
	if c.RateLimit.SweepProbability < 0 || c.RateLimit.SweepProbability > 1 {
		errs = append(errs, errors.New("ratelimit.sweep_probability must be within [0,1]"))
	}

	if c.Mode == ModeGCP && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret must be set in gcp mode"))
	}

	if c.Mood.Workers <= 0 {
		errs = append(errs, errors.New("mood.workers must be positive"))
	}
	if c.Mood.Timeout <= 0 {
		errs = append(errs, errors.New("mood.timeout must be positive"))
	}

	if _, err := c.Tasks.Location(); err != nil {
		errs = append(errs, fmt.Errorf("tasks.timezone: %w", err))
	}

	return errors.Join(errs...)
}
