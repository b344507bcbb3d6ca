package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	LogLevel       string        `mapstructure:"log_level"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	JWT            JWTConfig     `mapstructure:"jwt"`
	WS             WSConfig      `mapstructure:"ws"`
	Relay          RelayConfig   `mapstructure:"relay"`
	API            APIConfig     `mapstructure:"api"`
	Redis          RedisConfig   `mapstructure:"redis"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	Algorithm string `mapstructure:"algorithm"`
}

// WSConfig tunes each signaling connection.
type WSConfig struct {
	ReadLimit  int64         `mapstructure:"read_limit"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	RateBurst  int           `mapstructure:"rate_burst"`
}

type RelayConfig struct {
	// CallTTL expires calls that were never answered. Zero keeps them until
	// end or disconnect.
	CallTTL       time.Duration `mapstructure:"call_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type APIConfig struct {
	BroadcastRoles []string `mapstructure:"broadcast_roles"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads defaults, then config/config.<environment>.yaml if present, then
// environment variables (JWT_SECRET, REDIS_HOST, WS_PING_PERIOD, ...).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := fmt.Sprintf("config/config.%s.yaml", v.GetString("environment"))
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file = path
	}
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.algorithm", "HS256")

	v.SetDefault("ws.read_limit", 64*1024)
	v.SetDefault("ws.write_wait", "10s")
	v.SetDefault("ws.pong_wait", "60s")
	v.SetDefault("ws.ping_period", "54s")
	v.SetDefault("ws.send_buffer", 256)
	v.SetDefault("ws.rate_limit", 50.0)
	v.SetDefault("ws.rate_burst", 100)

	v.SetDefault("relay.call_ttl", "0s")
	v.SetDefault("relay.sweep_interval", "1m")

	v.SetDefault("api.broadcast_roles", []string{"admin"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.presence_ttl", "24h")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return errors.New("jwt.secret must be changed in production")
	}
	if c.WS.PingPeriod <= 0 || c.WS.PingPeriod >= c.WS.PongWait {
		return fmt.Errorf("ws.ping_period (%s) must be positive and shorter than ws.pong_wait (%s)", c.WS.PingPeriod, c.WS.PongWait)
	}
	if c.WS.SendBuffer <= 0 {
		return errors.New("ws.send_buffer must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}
