package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// CarrierAPIKey authenticates requests against the Nova Poshta API.
	CarrierAPIKey string `mapstructure:"carrier_api_key"`

	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Carrier CarrierConfig `mapstructure:"carrier"`
	Mail    MailConfig    `mapstructure:"mail"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Env string `mapstructure:"env"`
}

type DBConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// DSN returns a lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CarrierConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type MailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Seller   string        `mapstructure:"seller"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Brokers []string      `mapstructure:"brokers"`
	Topic   string        `mapstructure:"topic"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// maxExternalTimeout bounds calls to the carrier API, the mail relay and the
// Kafka brokers.
const maxExternalTimeout = 10 * time.Second

func setDefaults(v *viper.Viper) {
	v.SetDefault("carrier_api_key", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.env", "production")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "storefront")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookie_name", "sessionid")
	v.SetDefault("session.ttl", 14*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("carrier.base_url", "https://api.novaposhta.ua/v2.0/json/")
	v.SetDefault("carrier.timeout", 5*time.Second)
	v.SetDefault("carrier.cache_ttl", 5*time.Minute)

	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", "587")
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "shop@localhost")
	v.SetDefault("mail.seller", "shop@localhost")
	v.SetDefault("mail.timeout", 5*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "order_events")
	v.SetDefault("kafka.timeout", 3*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
}

// Load reads defaults, an optional config.yaml and the environment. It is called
// once at startup and the result is passed to every component.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("/etc/storefront/")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that the rest of the service relies on.
func (c *Config) Validate() error {
	if c.Carrier.Timeout <= 0 || c.Carrier.Timeout > maxExternalTimeout {
		return fmt.Errorf("carrier.timeout must be in (0, %s], got %s", maxExternalTimeout, c.Carrier.Timeout)
	}
	if c.Mail.Timeout <= 0 || c.Mail.Timeout > maxExternalTimeout {
		return fmt.Errorf("mail.timeout must be in (0, %s], got %s", maxExternalTimeout, c.Mail.Timeout)
	}
	if c.Kafka.Timeout <= 0 || c.Kafka.Timeout > maxExternalTimeout {
		return fmt.Errorf("kafka.timeout must be in (0, %s], got %s", maxExternalTimeout, c.Kafka.Timeout)
	}
	if c.Carrier.CacheTTL <= 0 {
		return fmt.Errorf("carrier.cache_ttl must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	return nil
}
