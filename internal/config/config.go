package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Registry RegistryConfig `mapstructure:"registry"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	URL         string        `mapstructure:"url"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type RelayConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Interval  time.Duration `mapstructure:"interval"`
	Exchange  string        `mapstructure:"exchange"`
}

type AuthConfig struct {
	Issuer         string `mapstructure:"issuer"`
	PublicKeyPath  string `mapstructure:"public_key_path"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
	// identity -> Argon2id hash of the API key secret. viper lower-cases
	// map keys, so identities here are matched lower-case.
	APIKeys map[string]string `mapstructure:"api_keys"`
}

type RegistryConfig struct {
	AllowOverwrite bool `mapstructure:"allow_overwrite"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("store.driver", DriverPostgres)
	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.lock_timeout", 3*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("relay.batch_size", 10)
	v.SetDefault("relay.interval", time.Second)
	v.SetDefault("relay.exchange", "registry.events")
	v.SetDefault("auth.issuer", "gavel-registry")
	v.SetDefault("auth.public_key_path", "")
	v.SetDefault("auth.private_key_path", "")
	v.SetDefault("registry.allow_overwrite", false)
	v.SetDefault("log.level", "info")
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment. REDIS_ADDR overrides redis.addr and so on. Values from
// .env.local and .env are exported into the environment first.
func Load() (*Config, error) {
	// local overrides .env
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/gavel-registry/")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return build(v)
}

// LoadFromFile loads configuration from a specific file path, still honouring
// environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected store driver has what it needs. The
// memory driver keeps nothing across restarts and must be chosen explicitly.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "":
		return errors.New("store.driver is required")
	case DriverMemory, DriverRedis:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if c.Relay.BatchSize <= 0 {
		return fmt.Errorf("relay.batch_size must be positive, got %d", c.Relay.BatchSize)
	}
	return nil
}

// RelayEnabled reports whether the outbox relay has both ends configured
func (c *Config) RelayEnabled() bool {
	return c.Store.Driver == DriverPostgres && c.RabbitMQ.URL != ""
}
