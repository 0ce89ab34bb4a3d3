package main

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"os"
	"strings"
)

var ServiceConfig Config

var ErrConfigWritten = errors.New("default config written")

type Config struct {
	Listen      string           `json:"listen" mapstructure:"listen"`
	Prefork     bool             `json:"prefork" mapstructure:"prefork"`
	AdminSecret string           `json:"admin_secret" mapstructure:"admin_secret"`
	Database    DatabaseConfig   `json:"database" mapstructure:"database"`
	Redis       RedisConfig      `json:"redis" mapstructure:"redis"`
	Jwt         JwtConfig        `json:"jwt" mapstructure:"jwt"`
	Storage     StorageConfig    `json:"storage" mapstructure:"storage"`
	Pdf         PdfConfig        `json:"pdf" mapstructure:"pdf"`
	Log         LogConfig        `json:"log" mapstructure:"log"`
	Cors        CorsConfig       `json:"cors" mapstructure:"cors"`
	Pagination  PaginationConfig `json:"pagination" mapstructure:"pagination"`
}

type DatabaseConfig struct {
	// Url takes precedence over the discrete fields when set.
	Url                string `json:"url" mapstructure:"url"`
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	User               string `json:"username" mapstructure:"username"`
	Password           string `json:"password" mapstructure:"password"`
	Database           string `json:"database" mapstructure:"database"`
	MaxIdleConnections int    `json:"max_idle_connections" mapstructure:"max_idle_connections"`
	MaxOpenConnections int    `json:"max_open_connections" mapstructure:"max_open_connections"`
	LogQueries         bool   `json:"log_queries" mapstructure:"log_queries"`
}

type RedisConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Host    string `json:"host" mapstructure:"host"`
	Port    int    `json:"port" mapstructure:"port"`
}

type JwtConfig struct {
	Secret  string `json:"secret" mapstructure:"secret"`
	Timeout int    `json:"timeout" mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver    string   `json:"driver" mapstructure:"driver"`
	MediaRoot string   `json:"media_root" mapstructure:"media_root"`
	MediaUrl  string   `json:"media_url" mapstructure:"media_url"`
	S3        S3Config `json:"s3" mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	PublicUrl string `json:"public_url" mapstructure:"public_url"`
}

type PdfConfig struct {
	FontPath string `json:"font_path" mapstructure:"font_path"`
}

type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	Format        string `json:"format" mapstructure:"format"`
	LogstashUrl   string `json:"logstash_url" mapstructure:"logstash_url"`
	ElasticUrl    string `json:"elastic_url" mapstructure:"elastic_url"`
	ElasticIndex  string `json:"elastic_index" mapstructure:"elastic_index"`
	ElasticSource string `json:"elastic_source" mapstructure:"elastic_source"`
}

type CorsConfig struct {
	AllowOrigins string `json:"allow_origins" mapstructure:"allow_origins"`
}

type PaginationConfig struct {
	DefaultLimit int `json:"default_limit" mapstructure:"default_limit"`
	MaxLimit     int `json:"max_limit" mapstructure:"max_limit"`
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8000")
	v.SetDefault("prefork", false)
	v.SetDefault("admin_secret", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "foodgram")
	v.SetDefault("database.max_idle_connections", 10)
	v.SetDefault("database.max_open_connections", 50)
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.timeout", 7*24*3600)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.media_root", "media")
	v.SetDefault("storage.media_url", "/media/")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.public_url", "")

	v.SetDefault("pdf.font_path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.logstash_url", "")
	v.SetDefault("log.elastic_url", "")
	v.SetDefault("log.elastic_index", "foodgram")
	v.SetDefault("log.elastic_source", "foodgram-api")

	v.SetDefault("cors.allow_origins", "*")

	v.SetDefault("pagination.default_limit", 6)
	v.SetDefault("pagination.max_limit", 100)
}

// LoadConfig reads path into ServiceConfig. Environment variables prefixed with
// FOODGRAM_ override file values, e.g. FOODGRAM_DATABASE_HOST. When the file does
// not exist the defaults are written to it and ErrConfigWritten is returned.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setConfigDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("foodgram")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		if err := v.WriteConfigAs(path); err != nil {
			return cfg, fmt.Errorf("failed to write config: %w", err)
		}

		return cfg, ErrConfigWritten
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Jwt.Secret == "" {
		return cfg, errors.New("jwt.secret must be set")
	}

	return cfg, nil
}
