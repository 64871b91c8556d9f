package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Transcode TranscodeConfig
	Janitor   JanitorConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type UploadConfig struct {
	SourceDir   string // partial and single-shot source uploads
	AssetDir    string // processed videos and thumbnails (local storage driver)
	WorkDir     string // transcoder scratch space
	MaxFileSize int64  // bytes
	ChunkSize   int64  // bytes
}

type TranscodeConfig struct {
	Concurrency int
	Timeout     time.Duration // 0 disables the timeout
	FFmpegPath  string
	QueueDriver string
	Embedded    bool // run the worker pool inside the HTTP server
}

type JanitorConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
	SessionTTL time.Duration
}

type DatabaseConfig struct {
	Driver        string // postgres | memory
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	AutoMigration bool
}

type RedisConfig struct {
	Host string
	Port string
}

type StorageConfig struct {
	Driver   string
	S3Bucket string
	S3Region string
}

type LogConfig struct {
	Level  string
	Format string
}

// DSN returns the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Upload: UploadConfig{
			SourceDir:   getEnv("UPLOAD_SOURCE_DIR", "video_src"),
			AssetDir:    getEnv("ASSET_DIR", "media"),
			WorkDir:     getEnv("WORK_DIR", "work"),
			MaxFileSize: getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024*1024), // 5GB
			ChunkSize:   getEnvAsInt64("UPLOAD_CHUNK_SIZE", 5*1024*1024),         // 5MB
		},
		Transcode: TranscodeConfig{
			Concurrency: int(getEnvAsInt64("TRANSCODE_CONCURRENCY", 10)),
			Timeout:     getEnvAsDuration("TRANSCODE_TIMEOUT", 0),
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			QueueDriver: strings.ToLower(getEnv("QUEUE_DRIVER", "memory")),
			Embedded:    getEnv("TRANSCODE_EMBEDDED", "true") == "true",
		},
		Janitor: JanitorConfig{
			Interval:   getEnvAsDuration("JANITOR_INTERVAL", time.Hour),
			StaleAfter: getEnvAsDuration("STALE_AFTER", 2*time.Hour),
			SessionTTL: getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "video_hosting"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			AutoMigration: getEnv("RUN_AUTO_MIGRATION", "false") == "true",
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Region: getEnv("S3_REGION", "eu-central-1"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Upload.ChunkSize <= 0 {
		return fmt.Errorf("UPLOAD_CHUNK_SIZE must be positive, got %d", c.Upload.ChunkSize)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Transcode.Concurrency <= 0 {
		return fmt.Errorf("TRANSCODE_CONCURRENCY must be positive, got %d", c.Transcode.Concurrency)
	}
	if c.Transcode.Timeout < 0 {
		return fmt.Errorf("TRANSCODE_TIMEOUT must not be negative")
	}
	if c.Janitor.Interval <= 0 || c.Janitor.StaleAfter <= 0 || c.Janitor.SessionTTL <= 0 {
		return fmt.Errorf("janitor durations must be positive")
	}
	switch c.Transcode.QueueDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", c.Transcode.QueueDriver)
	}
	if !c.Transcode.Embedded && c.Transcode.QueueDriver != "redis" {
		return fmt.Errorf("TRANSCODE_EMBEDDED=false needs QUEUE_DRIVER=redis")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

// EnsureDirs creates the local storage directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Upload.SourceDir, c.Upload.AssetDir, c.Upload.WorkDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
