package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Development() bool {
	return s.Mode == "development"
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	WarningTTL time.Duration `mapstructure:"warning_ttl"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type WarehouseConfig struct {
	DefaultCode string `mapstructure:"default_code"`
	DefaultName string `mapstructure:"default_name"`
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.mode":             "SERVER_MODE",
	"server.request_timeout":  "REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"database.url":            "DATABASE_URL",
	"database.max_conns":      "DB_MAX_CONNS",
	"database.min_conns":      "DB_MIN_CONNS",
	"jwt.secret":              "JWT_SECRET",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.warning_ttl":       "WARNING_CACHE_TTL",
	"warehouse.default_code":  "DEFAULT_WAREHOUSE_CODE",
	"warehouse.default_name":  "DEFAULT_WAREHOUSE_NAME",
}

// Load reads ./.env when present, then the process environment. Variables
// already set in the environment win over the file.
func Load() (Config, error) {
	envPath := filepath.Join(".", ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "production")
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.warning_ttl", 30*time.Second)
	v.SetDefault("warehouse.default_code", "WH-MAIN")
	v.SetDefault("warehouse.default_name", "Main Warehouse")
}

func (c *Config) validate() error {
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	c.JWT.Secret = strings.TrimSpace(c.JWT.Secret)
	c.Server.Mode = strings.ToLower(strings.TrimSpace(c.Server.Mode))
	c.Warehouse.DefaultCode = strings.TrimSpace(c.Warehouse.DefaultCode)

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required (environment variable or .env)")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required (environment variable or .env)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Server.Port)
	}
	if c.Database.MaxConns <= 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid pool size: min %d, max %d", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Warehouse.DefaultCode == "" {
		return fmt.Errorf("DEFAULT_WAREHOUSE_CODE cannot be empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q", c.Log.Format)
	}
	return nil
}
