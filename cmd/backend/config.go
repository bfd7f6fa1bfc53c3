package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rearqui/portfolio/database"
	"github.com/rearqui/portfolio/storage"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Storage  StorageConfig
	Ingest   IngestConfig
	Dispatch DispatchConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxUploadMB  int64
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver       string // "mysql", "sqlite" or "postgres"
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Path         string // For sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// SessionConfig holds admin session configuration.
type SessionConfig struct {
	CookieName   string
	CookieSecret string
	Duration     time.Duration
	Secure       bool
}

// StorageConfig holds media blob storage configuration.
type StorageConfig struct {
	Type            string // "local" or "s3"
	BaseDir         string // For local: "./media"
	BaseURL         string // For local: URL prefix served by the pages backend
	S3Bucket        string
	S3Region        string
	S3Endpoint      string // For S3-compatible stores
	S3AccessKey     string
	S3SecretKey     string
	S3PresignExpiry time.Duration
}

// IngestConfig holds where batch image_path locators resolve.
type IngestConfig struct {
	SourceType string
	SourceDir  string
}

// DispatchConfig holds the API path prefix.
type DispatchConfig struct {
	APIPrefix string
}

// AuthConfig selects the bearer credential verifier.
type AuthConfig struct {
	Mode      string // "token" or "jwt"
	JWTSecret string
	JWTIssuer string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from an optional .env file, a config
// file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	config.Server.MaxUploadMB = v.GetInt64("server.max_upload_mb")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.Path = v.GetString("database.path")
	config.Database.DSN = v.GetString("database.dsn")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Session.CookieName = v.GetString("session.cookie_name")
	config.Session.CookieSecret = v.GetString("session.cookie_secret")
	config.Session.Duration = v.GetDuration("session.duration")
	config.Session.Secure = v.GetBool("session.secure")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.BaseURL = v.GetString("storage.base_url")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Endpoint = v.GetString("storage.s3_endpoint")
	config.Storage.S3AccessKey = v.GetString("storage.s3_access_key")
	config.Storage.S3SecretKey = v.GetString("storage.s3_secret_key")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Ingest.SourceType = v.GetString("ingest.source_type")
	config.Ingest.SourceDir = v.GetString("ingest.source_dir")

	config.Dispatch.APIPrefix = v.GetString("dispatch.api_prefix")

	config.Auth.Mode = v.GetString("auth.mode")
	config.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	config.Auth.JWTIssuer = v.GetString("auth.jwt_issuer")

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "portfolio")
	v.SetDefault("database.path", "portfolio.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("session.cookie_name", "portfolio_session")
	v.SetDefault("session.cookie_secret", "change-this-secret-in-production-min-32-chars")
	v.SetDefault("session.duration", "12h")
	v.SetDefault("session.secure", false)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./media")
	v.SetDefault("storage.base_url", "/media")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.s3_access_key", "")
	v.SetDefault("storage.s3_secret_key", "")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("ingest.source_type", "local")
	v.SetDefault("ingest.source_dir", "./import")

	v.SetDefault("dispatch.api_prefix", "/api")

	v.SetDefault("auth.mode", "token")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "portfolio")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "token":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth.mode is jwt")
		}
	default:
		return fmt.Errorf("invalid auth.mode %q: must be token or jwt", c.Auth.Mode)
	}

	if !strings.HasPrefix(c.Dispatch.APIPrefix, "/") {
		return fmt.Errorf("dispatch.api_prefix must start with /")
	}

	if len(c.Session.CookieSecret) < 32 {
		return fmt.Errorf("session.cookie_secret must be at least 32 characters")
	}

	return nil
}

// DatabaseConfig converts to the database package's settings.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Driver:       c.Database.Driver,
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		Database:     c.Database.Database,
		Path:         c.Database.Path,
		DSN:          c.Database.DSN,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}

// MediaStorageConfig converts to the storage package's settings for media.
func (c *Config) MediaStorageConfig() storage.Config {
	return storage.Config{
		Type:          c.Storage.Type,
		BaseDir:       c.Storage.BaseDir,
		BaseURL:       c.Storage.BaseURL,
		S3Bucket:      c.Storage.S3Bucket,
		S3Region:      c.Storage.S3Region,
		S3Endpoint:    c.Storage.S3Endpoint,
		S3AccessKey:   c.Storage.S3AccessKey,
		S3SecretKey:   c.Storage.S3SecretKey,
		PresignExpiry: c.Storage.S3PresignExpiry,
	}
}

// SourceStorageConfig converts to the storage package's settings for the
// batch ingest source. An s3 source shares the media bucket credentials.
func (c *Config) SourceStorageConfig() storage.Config {
	if c.Ingest.SourceType == "s3" {
		return c.MediaStorageConfig()
	}
	return storage.Config{
		Type:    "local",
		BaseDir: c.Ingest.SourceDir,
	}
}
